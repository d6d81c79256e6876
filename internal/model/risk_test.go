package model

import "testing"

func TestClassifyRisk_Boundaries(t *testing.T) {
	cases := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{10, RiskLow},
		{29, RiskLow},
		{30, RiskMedium},
		{50, RiskMedium},
		{74, RiskMedium},
		{75, RiskHigh},
		{80, RiskHigh},
		{100, RiskHigh},
	}
	for _, c := range cases {
		if got := ClassifyRisk(c.score); got != c.want {
			t.Fatalf("ClassifyRisk(%d) = %s, want %s", c.score, got, c.want)
		}
	}
}

func TestProxyDescriptor_HostPort(t *testing.T) {
	d := ProxyDescriptor{Address: "1.2.3.4", Port: 8080}
	if d.HostPort() != "1.2.3.4:8080" {
		t.Fatalf("got %q", d.HostPort())
	}
	if d.HasAuth() {
		t.Fatalf("descriptor without credentials reports auth")
	}

	d.Username, d.Password = "u", "p"
	if !d.HasAuth() {
		t.Fatalf("descriptor with credentials reports no auth")
	}
}

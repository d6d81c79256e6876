package parser

import (
	"reflect"
	"testing"

	"github.com/zpix/proxyscore/internal/model"
)

func TestParseLine_Simple(t *testing.T) {
	res, err := parseLine("1.2.3.4:8080")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Address != "1.2.3.4" || res.Port != 8080 {
		t.Fatalf("bad parse: %#v", res)
	}
	if res.Username != "" || res.Password != "" {
		t.Fatalf("should not have auth: %#v", res)
	}
}

func TestParseLine_WithAuthColonStyle(t *testing.T) {
	line := "5.6.7.8:1080:user:pass"
	res, err := parseLine(line)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := model.ProxyDescriptor{
		Address:  "5.6.7.8",
		Port:     1080,
		Username: "user",
		Password: "pass",
		Raw:      line,
	}
	if !reflect.DeepEqual(res, want) {
		t.Fatalf("got %#v want %#v", res, want)
	}
}

func TestParseLine_WithAuthAtStyle(t *testing.T) {
	res, err := parseLine("user:pass@9.9.9.9:3128")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Address != "9.9.9.9" || res.Port != 3128 {
		t.Fatalf("bad host/port parse: %#v", res)
	}
	if res.Username != "user" || res.Password != "pass" {
		t.Fatalf("bad auth parse: %#v", res)
	}
}

func TestParseLine_NoPort(t *testing.T) {
	if _, err := parseLine("1.2.3.4"); err == nil {
		t.Fatalf("expected error for line without port")
	}
}

func TestParseLine_BadPort(t *testing.T) {
	for _, line := range []string{"1.2.3.4:abc", "1.2.3.4:0", "1.2.3.4:70000"} {
		if _, err := parseLine(line); err == nil {
			t.Fatalf("expected error for %q", line)
		}
	}
}

func TestParse_PreservesOrderAndSkipsMalformed(t *testing.T) {
	lines := []string{
		"1.1.1.1:80",
		"",
		"# comment",
		"not a proxy line",
		"2.2.2.2:81:u:p",
		"3.3.3.3:99999",
		"4.4.4.4:82",
	}
	descriptors, malformed := Parse(lines)

	if len(descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descriptors))
	}
	wantHosts := []string{"1.1.1.1", "2.2.2.2", "4.4.4.4"}
	for i, h := range wantHosts {
		if descriptors[i].Address != h {
			t.Fatalf("order broken at %d: got %q want %q", i, descriptors[i].Address, h)
		}
	}

	if len(malformed) != 2 {
		t.Fatalf("expected 2 malformed lines, got %d: %#v", len(malformed), malformed)
	}
	for _, m := range malformed {
		if m.Reason == "" {
			t.Fatalf("malformed line %q has empty reason", m.Line)
		}
	}
}

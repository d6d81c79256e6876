package model

import (
	"net"
	"strconv"
)

// ProxyDescriptor is a validated proxy endpoint parsed from one input line,
// either:
//   host:port
//   host:port:username:password
//
// Username and Password are both set or both empty.
type ProxyDescriptor struct {
	Address  string
	Port     uint16
	Username string
	Password string
	Raw      string // original line for debugging
}

// HostPort returns the dialable "host:port" form of the descriptor.
func (d ProxyDescriptor) HostPort() string {
	return net.JoinHostPort(d.Address, strconv.Itoa(int(d.Port)))
}

// HasAuth reports whether the descriptor carries proxy credentials.
func (d ProxyDescriptor) HasAuth() bool {
	return d.Username != "" || d.Password != ""
}

// Flags are the boolean attributes the reputation service reports for an IP.
// Any flag the service omits stays false.
type Flags struct {
	IsProxy     bool `json:"is_proxy"`
	IsVPN       bool `json:"is_vpn"`
	IsTor       bool `json:"is_tor"`
	IsMobile    bool `json:"is_mobile"`
	RecentAbuse bool `json:"recent_abuse"`
	IsBot       bool `json:"is_bot"`
}

// ReputationRecord is the combined answer of the geolocation and
// fraud-score lookups for one public IP.
type ReputationRecord struct {
	Location   string
	ISP        string
	FraudScore int // 0..100
	Flags      Flags
}

// CheckResult is the terminal success state for one descriptor: the proxy
// answered the probe and the fraud-score lookup on its public IP succeeded.
type CheckResult struct {
	Proxy      ProxyDescriptor `json:"proxy"`
	PublicIP   string          `json:"public_ip"`
	Location   string          `json:"location"`
	ISP        string          `json:"isp"`
	FraudScore int             `json:"fraud_score"`
	Flags      Flags           `json:"flags"`
	LatencyMs  int64           `json:"latency_ms"`
}

// Risk is the risk tier derived from the result's fraud score.
func (r CheckResult) Risk() RiskLevel {
	return ClassifyRisk(r.FraudScore)
}

// FailStage names the pipeline stage at which a proxy check ended.
type FailStage string

const (
	StageConnect         FailStage = "connect"
	StageAuth            FailStage = "auth"
	StageTimeout         FailStage = "timeout"
	StageReputationQuery FailStage = "reputation_query"
	StageParse           FailStage = "parse"
)

// CheckFailure is the terminal failure state for one descriptor. A descriptor
// produces either a CheckResult or a CheckFailure, never both.
type CheckFailure struct {
	Proxy   ProxyDescriptor `json:"proxy"`
	Stage   FailStage       `json:"stage"`
	Message string          `json:"message"`
}

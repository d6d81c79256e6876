package parser

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zpix/proxyscore/internal/model"
)

// Malformed records one input line the parser rejected and why.
type Malformed struct {
	Line   string
	Reason string
}

// Parse turns raw input lines into validated proxy descriptors.
// It supports formats:
//   host:port
//   host:port:username:password
//   username:password@host:port
//
// Empty lines and lines starting with '#' are ignored. Malformed lines are
// collected separately and never abort the rest of the batch. Descriptor
// order follows input order.
func Parse(lines []string) ([]model.ProxyDescriptor, []Malformed) {
	var out []model.ProxyDescriptor
	var bad []Malformed

	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, err := parseLine(line)
		if err != nil {
			bad = append(bad, Malformed{Line: line, Reason: err.Error()})
			continue
		}
		out = append(out, d)
	}
	return out, bad
}

// LoadFromFile reads a proxy list file line by line and parses it.
func LoadFromFile(path string) ([]model.ProxyDescriptor, []Malformed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan input file: %w", err)
	}

	descriptors, bad := Parse(lines)
	return descriptors, bad, nil
}

func parseLine(line string) (model.ProxyDescriptor, error) {
	// username:password@host:port
	if strings.Contains(line, "@") {
		parts := strings.SplitN(line, "@", 2)
		user, pass, err := splitUserPass(parts[0])
		if err != nil {
			return model.ProxyDescriptor{}, err
		}
		host, port, err := splitHostPort(parts[1])
		if err != nil {
			return model.ProxyDescriptor{}, err
		}
		return model.ProxyDescriptor{
			Address:  host,
			Port:     port,
			Username: user,
			Password: pass,
			Raw:      line,
		}, nil
	}

	col := strings.Split(line, ":")
	switch len(col) {
	case 2:
		port, err := parsePort(col[1])
		if err != nil {
			return model.ProxyDescriptor{}, err
		}
		if col[0] == "" {
			return model.ProxyDescriptor{}, fmt.Errorf("empty host in %q", line)
		}
		return model.ProxyDescriptor{
			Address: col[0],
			Port:    port,
			Raw:     line,
		}, nil

	case 4:
		port, err := parsePort(col[1])
		if err != nil {
			return model.ProxyDescriptor{}, err
		}
		if col[0] == "" {
			return model.ProxyDescriptor{}, fmt.Errorf("empty host in %q", line)
		}
		return model.ProxyDescriptor{
			Address:  col[0],
			Port:     port,
			Username: col[2],
			Password: col[3],
			Raw:      line,
		}, nil

	default:
		return model.ProxyDescriptor{}, fmt.Errorf("unrecognized proxy format: %q", line)
	}
}

func parsePort(s string) (uint16, error) {
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return uint16(port), nil
}

func splitUserPass(s string) (string, string, error) {
	up := strings.SplitN(s, ":", 2)
	if len(up) != 2 {
		return "", "", fmt.Errorf("invalid auth (expected user:pass): %q", s)
	}
	return up[0], up[1], nil
}

func splitHostPort(s string) (string, uint16, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 || parts[0] == "" {
		return "", 0, fmt.Errorf("invalid host:port: %q", s)
	}
	port, err := parsePort(parts[1])
	if err != nil {
		return "", 0, err
	}
	return parts[0], port, nil
}

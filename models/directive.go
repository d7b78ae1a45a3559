package models

import (
	"fmt"
	"strings"
)

// SupportedProtocols are the proxychains directive kinds this tool manages.
var SupportedProtocols = []string{"socks5", "socks4", "http", "https"}

// Directive is a single proxychains proxy line broken into its fields.
type Directive struct {
	Protocol string
	Host     string
	Port     string
	User     string
	Password string
}

// IsDirectiveLine reports whether the left-trimmed line begins with one of
// SupportedProtocols. Commented lines never match.
func IsDirectiveLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	for _, proto := range SupportedProtocols {
		if strings.HasPrefix(trimmed, proto) {
			return true
		}
	}
	return false
}

// ParseDirective splits a raw directive line of the form
// "<protocol> <host> <port> [user [password]]".
func ParseDirective(line string) (Directive, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Directive{}, fmt.Errorf("malformed proxy directive %q: expected '<protocol> <host> <port>'", line)
	}
	d := Directive{
		Protocol: strings.ToLower(fields[0]),
		Host:     fields[1],
		Port:     fields[2],
	}
	if len(fields) > 3 {
		d.User = fields[3]
	}
	if len(fields) > 4 {
		d.Password = fields[4]
	}
	for _, proto := range SupportedProtocols {
		if d.Protocol == proto {
			return d, nil
		}
	}
	return Directive{}, fmt.Errorf("unknown protocol %q in directive %q", fields[0], line)
}

// Address returns host:port.
func (d Directive) Address() string {
	return d.Host + ":" + d.Port
}

func (d Directive) String() string {
	return fmt.Sprintf("%s %s %s", d.Protocol, d.Host, d.Port)
}

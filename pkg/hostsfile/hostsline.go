package hostsfile

import (
	"strings"
)

// A single line of a hosts file, split into the mapping and its inline
// comment. Raw is kept so untouched lines can be written back verbatim.
type HostsLine struct {
	Raw       string
	Mapping   string
	Comment   string
	IP        string
	Hostnames []string
}

func ParseHostsLine(raw string) HostsLine {
	hl := HostsLine{Raw: raw}

	body := strings.TrimRight(raw, "\r\n")
	mapping, comment, hasComment := strings.Cut(body, "#")
	hl.Mapping = strings.TrimSpace(mapping)
	if hasComment {
		hl.Comment = "#" + comment
	}

	fields := strings.Fields(hl.Mapping)
	if len(fields) > 0 {
		hl.IP = fields[0]
		hl.Hostnames = fields[1:]
	}

	return hl
}

// Matches reports whether the mapping is the IP on its own, or the IP
// followed by whitespace and anything else.
func (hl *HostsLine) Matches(ip string) bool {
	return hl.IP != "" && hl.IP == ip
}

func splitLines(contents string) []string {
	if contents == "" {
		return []string{}
	}

	lines := strings.SplitAfter(contents, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func joinLines(lines []string) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
	}
	return sb.String()
}

// Makes sure whatever gets written after lines starts on its own line.
func terminateLastLine(lines []string) []string {
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines[n-1] += "\n"
	}
	return lines
}

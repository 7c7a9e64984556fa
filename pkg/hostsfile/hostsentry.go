package hostsfile

import (
	"strings"
)

type HostsEntry struct {
	ip      string
	hosts   []string
	comment string
}

func NewHostsEntry(ip string, hosts []string) *HostsEntry {
	he := HostsEntry{ip, append([]string{}, hosts...), ""}
	return &he
}

func (he *HostsEntry) IP() string {
	return he.ip
}

func (he *HostsEntry) Hosts() []string {
	return he.hosts
}

// Keeps the first non-empty comment it is given; later ones are ignored.
func (he *HostsEntry) SetComment(comment string) {
	if he.comment == "" {
		he.comment = comment
	}
}

// Adds hosts after the existing ones. Every hostname ends up in the entry
// once, at the position it was first seen.
func (he *HostsEntry) Merge(hosts ...string) {
	he.hosts = dedupePreserveOrder(append(he.hosts, hosts...))
}

// Drops the first occurrence of host, returning whether it was present.
func (he *HostsEntry) Remove(host string) bool {
	for i, h := range he.hosts {
		if h == host {
			he.hosts = append(he.hosts[:i:i], he.hosts[i+1:]...)
			return true
		}
	}
	return false
}

func (he *HostsEntry) Empty() bool {
	return len(he.hosts) == 0
}

// The form used when an entry is rewritten in place: "<ip> <hosts...>[ <comment>]".
func (he *HostsEntry) String() string {
	line := strings.Join(append([]string{he.ip}, he.hosts...), " ")
	if he.comment != "" {
		line += " " + he.comment
	}
	return line
}

// The form used when an entry is appended to the end of a file for the first
// time: "<ip> \t<hosts...>".
func (he *HostsEntry) AppendString() string {
	return he.ip + " \t" + strings.Join(he.hosts, " ")
}

func dedupePreserveOrder(seq []string) []string {
	seen := make(map[string]struct{}, len(seq))
	out := make([]string, 0, len(seq))
	for _, s := range seq {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

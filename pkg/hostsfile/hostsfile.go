package hostsfile

import (
	"context"
	"errors"
	"os"

	"github.com/sirupsen/logrus"
)

// Edits the IP to hostname mappings of a hosts file held in a Store.
// Each call reads the file fresh; nothing is cached between calls.
type HostsFile struct {
	store Store
	log   logrus.FieldLogger
}

func NewHostsFile(store Store, log logrus.FieldLogger) *HostsFile {
	hf := HostsFile{store, log.WithField("store", store.Name())}
	return &hf
}

// Merges hostnames into the entry for ip, or appends a new entry when the
// file has none. Returns the line that now represents ip, newline included.
func (hf *HostsFile) Append(ctx context.Context, ip string, hostnames []string) (string, error) {
	if err := ValidateIPv4(ip); err != nil {
		return "", err
	}

	if err := ValidateHostnames(hostnames); err != nil {
		return "", err
	}

	var line string
	err := hf.withLock(ctx, func() error {
		lines, err := hf.readLines(ctx)
		if err != nil {
			return err
		}

		kept, entry, found := mergeEntry(lines, ip, hostnames)
		line = entry + "\n"

		if !found {
			// An append can't fix up a missing newline on its own, so put
			// one in front of the entry when the file needs it.
			prefix := ""
			if n := len(lines); n > 0 && lines[n-1][len(lines[n-1])-1] != '\n' {
				prefix = "\n"
			}
			hf.log.Debugf("No entry for %s, appending a new one", ip)
			return hf.store.Append(ctx, prefix+line)
		}

		hf.log.Debugf("Merging hostnames into the existing entry for %s", ip)
		kept = append(terminateLastLine(kept), line)
		return hf.store.Rewrite(ctx, joinLines(kept))
	})
	if err != nil {
		return "", err
	}

	return line, nil
}

// Removes hostname from every entry for ip. Entries left without any
// hostnames are dropped. Reports whether anything was removed.
func (hf *HostsFile) RemoveHostname(ctx context.Context, ip string, hostname string) (bool, error) {
	if err := ValidateIPv4(ip); err != nil {
		return false, err
	}

	modified := false
	err := hf.withLock(ctx, func() error {
		lines, err := hf.readLines(ctx)
		if err != nil {
			return err
		}

		var updated []string
		updated, modified = removeHostname(lines, ip, hostname)
		if !modified {
			return nil
		}

		hf.log.Debugf("Removed %s from %s, rewriting", hostname, ip)
		return hf.store.Rewrite(ctx, joinLines(updated))
	})

	return modified, err
}

// Removes every line for ip, returning the removed lines as they were in the
// file. A nil result means there was nothing to remove.
func (hf *HostsFile) RemoveEntry(ctx context.Context, ip string) ([]string, error) {
	if err := ValidateIPv4(ip); err != nil {
		return nil, err
	}

	var removed []string
	err := hf.withLock(ctx, func() error {
		lines, err := hf.readLines(ctx)
		if err != nil {
			return err
		}

		var kept []string
		removed, kept = partitionLines(lines, ip)
		if len(removed) == 0 {
			removed = nil
			return nil
		}

		hf.log.Debugf("Removing %d line(s) for %s, rewriting", len(removed), ip)
		return hf.store.Rewrite(ctx, joinLines(kept))
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

// Returns every line for ip, or nil when there are none. Never writes.
func (hf *HostsFile) GetEntries(ctx context.Context, ip string) ([]string, error) {
	if err := ValidateIPv4(ip); err != nil {
		return nil, err
	}

	lines, err := hf.readLines(ctx)
	if err != nil {
		return nil, err
	}

	matching, _ := partitionLines(lines, ip)
	if len(matching) == 0 {
		return nil, nil
	}
	return matching, nil
}

func (hf *HostsFile) Backup(ctx context.Context) (string, error) {
	return hf.store.Backup(ctx)
}

func (hf *HostsFile) withLock(ctx context.Context, fn func() error) error {
	unlock, err := hf.store.Lock(ctx)
	if err != nil {
		return err
	}

	fnErr := fn()
	if err := unlock(); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

// A missing file reads as an empty one, for every operation.
func (hf *HostsFile) readLines(ctx context.Context) ([]string, error) {
	contents, err := hf.store.Read(ctx)
	if errors.Is(err, os.ErrNotExist) {
		hf.log.Debug("Hosts file does not exist, treating it as empty")
		return []string{}, nil
	} else if err != nil {
		return nil, err
	}

	return splitLines(contents), nil
}

// Pulls every line for ip out of lines, folding their hostnames and first
// comment together with hostnames. Returns the remaining lines, the line
// that should represent ip, and whether ip had any lines to begin with.
func mergeEntry(lines []string, ip string, hostnames []string) ([]string, string, bool) {
	kept := []string{}
	entry := NewHostsEntry(ip, nil)
	found := false

	for _, raw := range lines {
		hl := ParseHostsLine(raw)
		if !hl.Matches(ip) {
			kept = append(kept, raw)
			continue
		}

		found = true
		entry.Merge(hl.Hostnames...)
		entry.SetComment(hl.Comment)
	}

	entry.Merge(hostnames...)

	if !found {
		return kept, entry.AppendString(), false
	}
	return kept, entry.String(), true
}

func removeHostname(lines []string, ip string, hostname string) ([]string, bool) {
	updated := []string{}
	modified := false

	for _, raw := range lines {
		hl := ParseHostsLine(raw)
		if !hl.Matches(ip) {
			updated = append(updated, raw)
			continue
		}

		// Lines without the hostname stay as written, address-only ones too.
		entry := NewHostsEntry(hl.IP, hl.Hostnames)
		if !entry.Remove(hostname) {
			updated = append(updated, raw)
			continue
		}

		modified = true
		if entry.Empty() {
			continue
		}

		entry.SetComment(hl.Comment)
		updated = append(updated, entry.String()+"\n")
	}

	return updated, modified
}

func partitionLines(lines []string, ip string) ([]string, []string) {
	matching := []string{}
	rest := []string{}

	for _, raw := range lines {
		hl := ParseHostsLine(raw)
		if hl.Matches(ip) {
			matching = append(matching, raw)
		} else {
			rest = append(rest, raw)
		}
	}

	return matching, rest
}

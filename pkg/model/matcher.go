package model

import (
	"strconv"
	"strings"
)

// Hit is the set of members of one cluster attributed to one strain.
type Hit struct {
	Strain  *Strain
	Members []*Header
}

func (h Hit) Count() int { return len(h.Members) }

// Cell renders the hit for the detailed table: "[2]|a, b" or "*".
func (h Hit) Cell() string {
	if len(h.Members) == 0 {
		return "*"
	}
	short := make([]string, len(h.Members))
	for i, m := range h.Members {
		short[i] = m.Short()
	}
	return "[" + strconv.Itoa(len(h.Members)) + "]|" + strings.Join(short, ", ")
}

// Matcher assigns the members of one cluster to strains. Claimed members are
// tracked by index, the member slice itself is never modified.
type Matcher struct {
	members []*Header
	owner   []int
	strains []*Strain
}

func NewMatcher(members []*Header) *Matcher {
	owner := make([]int, len(members))
	for i := range owner {
		owner[i] = -1
	}
	return &Matcher{members: members, owner: owner}
}

// Match claims every member carrying "<prefix>_" at a token boundary. Members
// keep their input order. A member already claimed by another strain is an
// *AmbiguousPrefixError.
func (m *Matcher) Match(s *Strain) (Hit, error) {
	idx := len(m.strains)
	m.strains = append(m.strains, s)

	token := s.Prefix + "_"
	hit := Hit{Strain: s}

	for i, member := range m.members {
		if !containsToken(member.Text, token) {
			continue
		}
		if prev := m.owner[i]; prev >= 0 && prev != idx {
			return Hit{}, &AmbiguousPrefixError{
				Prefixes: []string{m.strains[prev].Prefix, s.Prefix},
				Member:   member.Short(),
			}
		}
		m.owner[i] = idx
		hit.Members = append(hit.Members, member)
	}
	return hit, nil
}

// Unclaimed lists members no strain has matched so far.
func (m *Matcher) Unclaimed() []*Header {
	var out []*Header
	for i, o := range m.owner {
		if o < 0 {
			out = append(out, m.members[i])
		}
	}
	return out
}

// containsToken reports whether token occurs in text at the start or right
// after a character that cannot be part of a locus tag, so "ABC_" never
// matches inside "XABC_12".
func containsToken(text, token string) bool {
	for off := 0; off <= len(text)-len(token); {
		i := strings.Index(text[off:], token)
		if i < 0 {
			return false
		}
		i += off
		if i == 0 || !isTagChar(text[i-1]) {
			return true
		}
		off = i + 1
	}
	return false
}

func isTagChar(c byte) bool {
	return c == '_' ||
		('0' <= c && c <= '9') ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z')
}

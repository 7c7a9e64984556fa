//go:build !unix

package privilege

// There is no sudo to hand over to; the edit just fails if access is denied.
type SudoEscalator struct{}

func NewSudoEscalator() *SudoEscalator {
	return &SudoEscalator{}
}

func (se *SudoEscalator) Escalate() error {
	return nil
}

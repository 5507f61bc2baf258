package models

// HasIdentityCoverage is true iff the ACCEPTED documents cover at least two
// distinct identity document types. Copies of one type count once.
func HasIdentityCoverage(docs []*Document) bool {
	seen := make(map[Type]struct{}, len(identityTypes))
	for _, d := range docs {
		if d.Status == StatusAccepted && d.Type.IsIdentityDocument() {
			seen[d.Type] = struct{}{}
		}
	}
	return len(seen) >= 2
}

// ReadyForVerification is true iff at least one document awaits verification
// and none has failed. An empty set is never ready.
func ReadyForVerification(docs []*Document) bool {
	pending := false
	for _, d := range docs {
		switch d.Status {
		case StatusFailed:
			return false
		case StatusVerificationPending:
			pending = true
		}
	}
	return pending
}

// AnyInStatus reports whether some document has status.
func AnyInStatus(docs []*Document, status Status) bool {
	for _, d := range docs {
		if d.Status == status {
			return true
		}
	}
	return false
}

// AllInStatus reports whether docs is non-empty and every document has status.
func AllInStatus(docs []*Document, status Status) bool {
	if len(docs) == 0 {
		return false
	}
	for _, d := range docs {
		if d.Status != status {
			return false
		}
	}
	return true
}

// Active drops disposed documents and selfies captured by the presence check.
func Active(docs []*Document) []*Document {
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if d.Status == StatusDisposed || d.Type == TypeSelfiePhoto || d.Type == TypeSelfieVideo {
			continue
		}
		out = append(out, d)
	}
	return out
}

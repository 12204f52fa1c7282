package notice

// Visible reports whether a single notice is visible to a requester with the
// given role and branch. The policy is conjunctive: the category must admit
// the requester's role AND the branch must admit the requester's branch.
//
// An anonymous requester (empty role) only sees fully generic notices.
func Visible(n *Notice, requesterRole, requesterBranch string) bool {
	if n == nil {
		return false
	}
	if n.Category != CategoryAll && n.Category != requesterRole {
		return false
	}
	if n.Branch != BranchAll && n.Branch != requesterBranch {
		return false
	}
	return true
}

// FilterVisible returns the subsequence of notices visible to the requester,
// preserving the input (creation) order.
func FilterVisible(all []*Notice, requesterRole, requesterBranch string) []*Notice {
	out := make([]*Notice, 0, len(all))
	for _, n := range all {
		if Visible(n, requesterRole, requesterBranch) {
			out = append(out, n)
		}
	}
	return out
}

// Package identity derives academic identity from institutional email
// addresses. Student emails at IIITDM Jabalpur encode the admission batch,
// branch and roll number in the local part (e.g. 21bcs045@iiitdmj.ac.in).
package identity

import "regexp"

// Domain is the institutional email suffix that gates portal access.
const Domain = "@iiitdmj.ac.in"

var rollPattern = regexp.MustCompile(`^(\d{2})(b[a-z]{2})(\d+)@iiitdmj\.ac\.in$`)

// branchNames maps known branch codes to display names. Codes outside this
// map are shown as-is; new programmes appear before anyone updates the map.
var branchNames = map[string]string{
	"bcs": "Computer Science and Engineering",
	"bec": "Electronics and Communication Engineering",
	"bme": "Mechanical Engineering",
	"bsm": "Smart Manufacturing",
}

// Details holds the academic identity parsed from an email local part.
type Details struct {
	Batch      string
	Branch     string
	BranchName string
	RollNumber string
}

// IsInstitutionalEmail reports whether email belongs to the institutional
// domain. This is the access-control predicate: it accepts any local part,
// including staff addresses that Extract cannot parse.
func IsInstitutionalEmail(email string) bool {
	return len(email) > len(Domain) && email[len(email)-len(Domain):] == Domain
}

// Extract parses the batch, branch and roll number from a student email.
// The second return is false when the local part does not follow the
// student numbering scheme; that is not an error, the account is simply
// not enriched.
func Extract(email string) (Details, bool) {
	m := rollPattern.FindStringSubmatch(email)
	if m == nil {
		return Details{}, false
	}
	return Details{
		Batch:      m[1],
		Branch:     m[2],
		BranchName: BranchName(m[2]),
		RollNumber: m[3],
	}, true
}

// BranchName resolves a branch code to its display name. Unknown codes pass
// through unchanged.
func BranchName(code string) string {
	if name, ok := branchNames[code]; ok {
		return name
	}
	return code
}

package constants_test

import (
	"fmt"

	"github.com/agentstation/searchterms/pkg/constants"
)

// Example demonstrates naming an attribution column
func Example() {
	column := constants.AttributionPrefix + "abc123"
	fmt.Println(column)
	fmt.Println(constants.TermsResourceName)
	// Output:
	// rsrc-abc123
	// Search Terms
}

// Example_timeouts demonstrates the job timeout constant
func Example_timeouts() {
	fmt.Printf("jobs time out after %s\n", constants.JobTimeout)
	// Output: jobs time out after 6h0m0s
}

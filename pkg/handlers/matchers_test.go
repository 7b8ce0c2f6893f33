package handlers_test

import (
	"fmt"

	"github.com/onsi/gomega/format"
	"github.com/onsi/gomega/types"
)

// HaveError matches a Response carrying the given status and error code.
func HaveError(status int, code string) types.GomegaMatcher {
	return &haveErrorMatcher{status: status, code: code}
}

type haveErrorMatcher struct {
	status int
	code   string
}

func (m *haveErrorMatcher) Match(actual interface{}) (bool, error) {
	res, ok := actual.(Response)
	if !ok {
		return false, fmt.Errorf("HaveError matcher requires a Response, got:\n%s", format.Object(actual, 1))
	}
	return res.Status == m.status && res.Field("code") == m.code, nil
}

func (m *haveErrorMatcher) FailureMessage(actual interface{}) string {
	return format.Message(describe(actual), "to be an error response", fmt.Sprintf("%d %s", m.status, m.code))
}

func (m *haveErrorMatcher) NegatedFailureMessage(actual interface{}) string {
	return format.Message(describe(actual), "not to be an error response", fmt.Sprintf("%d %s", m.status, m.code))
}

func describe(actual interface{}) string {
	if res, ok := actual.(Response); ok {
		return fmt.Sprintf("%d %s", res.Status, string(res.Raw))
	}
	return format.Object(actual, 1)
}

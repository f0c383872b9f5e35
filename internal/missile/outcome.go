package missile

import "strings"

// Failure is the closed set of reasons an engagement can fail.
type Failure int

const (
	// TooFast: the action cooldown has not expired.
	TooFast Failure = iota
	// NoInfluence: not enough standing to act on this target.
	NoInfluence
	// AlreadyBanned: the target is already on the ban list.
	AlreadyBanned
	// NotAllowed: the acting nation lost the required privilege.
	NotAllowed
	// Unknown: an error the classifier does not recognize.
	Unknown

	failureCount
)

var failureNames = [failureCount]string{
	TooFast:       "too_fast",
	NoInfluence:   "no_influence",
	AlreadyBanned: "already_banned",
	NotAllowed:    "not_allowed",
	Unknown:       "unknown",
}

func (f Failure) String() string {
	if f < 0 || f >= failureCount {
		return "invalid"
	}
	return failureNames[f]
}

// RetryClass says what the control loop does after a failure.
type RetryClass int

const (
	unclassified RetryClass = iota
	// Retryable: the target may be attempted again later.
	Retryable
	// SkipPermanently: every later attempt on this target will fail.
	SkipPermanently
	// AbortAll: no further engagement is possible this run.
	AbortAll
)

func (c RetryClass) String() string {
	switch c {
	case Retryable:
		return "retry"
	case SkipPermanently:
		return "skip"
	case AbortAll:
		return "abort"
	default:
		return "unclassified"
	}
}

// retryClasses maps every Failure to its class. init panics if an entry is
// missing, so adding a Failure without classifying it fails at startup.
var retryClasses = [failureCount]RetryClass{
	TooFast:       Retryable,
	NoInfluence:   SkipPermanently,
	AlreadyBanned: SkipPermanently,
	NotAllowed:    AbortAll,
	Unknown:       Retryable,
}

func init() {
	for f, c := range retryClasses {
		if c == unclassified {
			panic("missile: failure " + Failure(f).String() + " has no retry class")
		}
	}
}

// Class returns the retry class of f.
func (f Failure) Class() RetryClass {
	if f < 0 || f >= failureCount {
		return Retryable
	}
	return retryClasses[f]
}

// marker matches remote error text to a Failure. Every substring must be
// present. Checked in order; first match wins.
type marker struct {
	contains []string
	failure  Failure
}

var markers = []marker{
	{[]string{"heavy nation-shifting assets are currently deployed"}, TooFast},
	{[]string{"don't have enough regional influence"}, NoInfluence},
	{[]string{"is already on the", "ban list."}, AlreadyBanned},
	{[]string{"You are not authorized to handle matters relating to Border Control"}, NotAllowed},
}

// classifyError maps the text of an error block to a Failure.
func classifyError(text string) Failure {
	for _, m := range markers {
		if containsAll(text, m.contains) {
			return m.failure
		}
	}
	return Unknown
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}

// Result is the outcome of one engagement attempt.
type Result struct {
	Success bool
	Reason  Failure // meaningful only when Success is false
	Detail  string  // remote error text, if any
}

// Class returns the retry class of a failed result. A success has no
// class; callers check Success first.
func (r Result) Class() RetryClass {
	if r.Success {
		return unclassified
	}
	return r.Reason.Class()
}

func (r Result) String() string {
	if r.Success {
		return "success"
	}
	return r.Reason.String()
}

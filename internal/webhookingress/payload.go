package webhookingress

import "encoding/json"

// pullRequestPayload mirrors the subset of GitHub's pull_request webhook
// body the ingress pipeline actually inspects. Fields absent from this
// event's schema simply decode to zero values.
type pullRequestPayload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		Number int    `json:"number"`
		Draft  bool   `json:"draft"`
		Title  string `json:"title"`
		Body   string `json:"body"`
		Head   struct {
			SHA string `json:"sha"`
		} `json:"head"`
	} `json:"pull_request"`
	Repository struct {
		Name  string `json:"name"`
		Owner struct {
			Login string `json:"login"`
		} `json:"owner"`
	} `json:"repository"`
	Installation struct {
		ID int64 `json:"id"`
	} `json:"installation"`
}

var acceptedActions = map[string]bool{
	"opened":           true,
	"synchronize":      true,
	"reopened":         true,
	"ready_for_review": true,
}

// decodePayload parses raw JSON, silently falling back to an empty payload
// on failure so every downstream shape check rejects it uniformly rather
// than the handler needing a separate "bad JSON" branch.
func decodePayload(raw []byte) pullRequestPayload {
	var p pullRequestPayload
	_ = json.Unmarshal(raw, &p)
	return p
}

// validShape reports whether the fields the pipeline depends on are
// present with plausible primitive values. It does not (and cannot, given
// silent-decode-on-failure) distinguish malformed JSON from a
// legitimately empty payload — both fail the same shape check.
func (p pullRequestPayload) validShape() bool {
	if p.Action == "" {
		return false
	}
	if p.Number == 0 && p.PullRequest.Number == 0 {
		return false
	}
	if p.Repository.Name == "" || p.Repository.Owner.Login == "" {
		return false
	}
	return true
}

func (p pullRequestPayload) accepted() bool {
	return acceptedActions[p.Action]
}

func (p pullRequestPayload) hasInstallation() bool {
	return p.Installation.ID != 0
}

func (p pullRequestPayload) number() int {
	if p.Number != 0 {
		return p.Number
	}
	return p.PullRequest.Number
}

package validateagentaccess

type Input struct {
	Subject string `json:"subject"`
}

// Output is also the value cached in Redis for a confirmed agent.
type Output struct {
	AgentID  string `json:"agentId"`
	FullName string `json:"fullName,omitempty"`
	Cached   bool   `json:"-"`
}

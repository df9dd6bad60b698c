package model

// Credential is one provider session bound to an account on a server.
// The update worker only reads credentials and may mark one offline;
// ownership stays with the provider-session subsystem.
type Credential struct {
	Account  string `json:"account"`
	ServerID int    `json:"server"`
	Server   string `json:"server_name"`
	Token    string `json:"token"`
	Online   bool   `json:"online"`
	Expiring int64  `json:"expiring"`
	Message  string `json:"message,omitempty"`
}

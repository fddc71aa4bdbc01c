package models

// AuditRequest is the payload for POST /api/v1/audit.
type AuditRequest struct {
	// URL is the page to audit. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxAge allows serving a cached report not older than this many
	// seconds. 0 (default) always runs a fresh audit.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0,max=604800"`

	// Format selects the rendered markup returned alongside the report.
	// Allowed: "json" (default, report only), "html", "markdown".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=json html markdown"`

	// Notify, when set, delivers the rendered report asynchronously.
	Notify *Notify `json:"notify,omitempty"`
}

// Notify names where a finished report should be delivered.
// Either field may be empty; both may be set.
type Notify struct {
	Email         string `json:"email,omitempty" binding:"omitempty,email"`
	WebhookURL    string `json:"webhook_url,omitempty" binding:"omitempty,http_url"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

// Empty reports whether no destination is configured.
func (n *Notify) Empty() bool {
	return n == nil || (n.Email == "" && n.WebhookURL == "")
}

// Defaults applies default values to unset fields.
func (r *AuditRequest) Defaults() {
	if r.Format == "" {
		r.Format = "json"
	}
}

// RenderRequest is the payload for POST /api/v1/render.
type RenderRequest struct {
	Report *Report `json:"report" binding:"required"`

	// Format is "html" (default) or "markdown".
	Format string `json:"format,omitempty" binding:"omitempty,oneof=html markdown"`
}

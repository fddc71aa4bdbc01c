package delivery

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/use-agent/seoaudit/models"
)

// SignatureHeader carries the HMAC-SHA256 of the request body when the
// webhook has a secret: "sha256=<hex>".
const SignatureHeader = "X-SEOAudit-Signature"

// Event is the payload posted to webhook endpoints.
type Event struct {
	Type      string         `json:"type"` // always "report.ready"
	Timestamp int64          `json:"timestamp"`
	Recipient string         `json:"recipient,omitempty"`
	Subject   string         `json:"subject"`
	HTML      string         `json:"html"`
	Text      string         `json:"text"`
	Report    *models.Report `json:"report"`
}

// Webhook posts reports as signed JSON.
type Webhook struct {
	url    string
	secret string
	client *http.Client
	now    func() time.Time
}

// NewWebhook creates a webhook channel for one endpoint.
func NewWebhook(url, secret string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Webhook{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// ErrWebhookTarget is returned for webhook URLs the server refuses to call.
var ErrWebhookTarget = errors.New("delivery: webhook target not allowed")

// sharedAddressSpace is the carrier-grade NAT range (RFC 6598).
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// blockedAddr reports whether ip is loopback, private, link-local or
// otherwise not a public unicast destination.
func blockedAddr(ip netip.Addr) bool {
	ip = ip.Unmap()
	return !ip.IsValid() ||
		ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		sharedAddressSpace.Contains(ip)
}

// ValidateWebhookURL accepts absolute http(s) URLs with a host. Unless
// allowPrivate is set, literal IP hosts must be public and "localhost" is
// refused. Hostnames are checked again after resolution when dialing.
func ValidateWebhookURL(raw string, allowPrivate bool) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookTarget, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrWebhookTarget, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: missing host", ErrWebhookTarget)
	}
	if allowPrivate {
		return nil
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return fmt.Errorf("%w: %s", ErrWebhookTarget, host)
	}
	if ip, err := netip.ParseAddr(host); err == nil && blockedAddr(ip) {
		return fmt.Errorf("%w: %s is not a public address", ErrWebhookTarget, host)
	}
	return nil
}

// publicOnly makes w refuse connections to non-public addresses. The check
// runs on the resolved address, so DNS names pointing inward are caught too.
// Proxies are disabled because they would hide the real destination.
func (w *Webhook) publicOnly() *Webhook {
	dialer := &net.Dialer{
		Timeout: 10 * time.Second,
		Control: func(_, address string, _ syscall.RawConn) error {
			ap, err := netip.ParseAddrPort(address)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrWebhookTarget, err)
			}
			if blockedAddr(ap.Addr()) {
				return fmt.Errorf("%w: %s is not a public address", ErrWebhookTarget, ap.Addr())
			}
			return nil
		},
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext
	w.client.Transport = transport
	return w
}

func (w *Webhook) Name() string { return "webhook" }

// Deliver posts msg synchronously. Any 4xx/5xx answer is a failure.
func (w *Webhook) Deliver(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(&Event{
		Type:      "report.ready",
		Timestamp: w.now().Unix(),
		Recipient: msg.Recipient,
		Subject:   msg.Subject,
		HTML:      msg.HTML,
		Text:      msg.Text,
		Report:    msg.Report,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "SEOAudit-Webhook/1.0")

	if w.secret != "" {
		req.Header.Set(SignatureHeader, "sha256="+Sign(w.secret, body))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

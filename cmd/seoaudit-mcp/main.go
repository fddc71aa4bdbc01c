package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
)

func main() {
	apiURL := os.Getenv("SEOAUDIT_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("SEOAUDIT_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SEOAUDIT_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"seoaudit",
		config.Version,
		server.WithToolCapabilities(false),
	)

	auditURLTool := mcp.NewTool("audit_url",
		mcp.WithDescription("Render a web page in a headless browser and audit its on-page SEO. Returns a 0-100 score, the issues found with remediation advice, and page metrics as Markdown."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the web page to audit"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached report up to this many seconds old (default: 0, always fresh)"),
		),
	)
	s.AddTool(auditURLTool, handleAuditURL(apiURL, apiKey))

	batchAuditTool := mcp.NewTool("batch_audit",
		mcp.WithDescription("Audit several URLs in parallel and return a score summary plus the issues for each page."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to audit (max 100)"),
		),
	)
	s.AddTool(batchAuditTool, handleBatchAudit(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the audit API and returns the response body.
func apiDo(ctx context.Context, client *http.Client, method, url, apiKey string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollBatch polls a batch job until its status is no longer "processing" or
// ctx is cancelled.
func pollBatch(ctx context.Context, client *http.Client, apiURL, apiKey, id string) (*models.BatchStatusResponse, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := apiDo(ctx, client, http.MethodGet, apiURL+"/api/v1/batch/"+id, apiKey, nil)
			if err != nil {
				return nil, err
			}
			var status models.BatchStatusResponse
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != models.BatchProcessing {
				return &status, nil
			}
		}
	}
}

func handleAuditURL(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		body, err := apiDo(ctx, client, http.MethodPost, apiURL+"/api/v1/audit", apiKey, models.AuditRequest{
			URL:    url,
			MaxAge: request.GetInt("max_age", 0),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.AuditResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success || resp.Report == nil {
			return mcp.NewToolResultError(describeError(resp.Error)), nil
		}

		var md bytes.Buffer
		if err := report.WriteMarkdown(&md, resp.Report); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render report: %v", err)), nil
		}
		return mcp.NewToolResultText(md.String()), nil
	}
}

func handleBatchAudit(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 600 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		body, err := apiDo(ctx, client, http.MethodPost, apiURL+"/api/v1/batch/audit", apiKey, models.BatchRequest{URLs: urls})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}
		var created models.BatchResponse
		if err := json.Unmarshal(body, &created); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}
		if created.ID == "" {
			return mcp.NewToolResultError("batch job creation failed"), nil
		}

		status, err := pollBatch(ctx, client, apiURL, apiKey, created.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}
		return mcp.NewToolResultText(summarizeBatch(status)), nil
	}
}

// summarizeBatch lists one line per URL followed by the issues of each
// audited page.
func summarizeBatch(status *models.BatchStatusResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Batch %s: %s (%d/%d)\n\n", status.ID, status.Status, status.Completed, status.Total)
	for _, r := range status.Results {
		if r == nil {
			continue
		}
		if r.Report == nil {
			fmt.Fprintf(&sb, "- %s: %s\n", r.URL, describeError(r.Error))
			continue
		}
		fmt.Fprintf(&sb, "- %s: %d/100 (%d issues)\n", r.URL, r.Report.Score, len(r.Report.Issues))
		for _, is := range r.Report.Issues {
			fmt.Fprintf(&sb, "  - [%s] %s: %s\n", is.Severity, is.Title, is.Remediation)
		}
	}
	return sb.String()
}

func describeError(e *models.ErrorDetail) string {
	if e == nil {
		return "audit failed"
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

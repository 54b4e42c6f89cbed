package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"rio-cli/internal/model"
)

type jobResponse struct {
	JobID string `json:"job_id"`
}

func (r jobResponse) id(path string) (string, error) {
	if strings.TrimSpace(r.JobID) == "" {
		return "", errors.New(path + ": response missing job_id")
	}
	return r.JobID, nil
}

func (c *Client) ToolsStatus(ctx context.Context) (model.ToolsStatus, error) {
	var out model.ToolsStatus
	err := c.do(ctx, http.MethodGet, "/api/tools/status", nil, &out)
	return out, err
}

func (c *Client) UpdateTool(ctx context.Context, tool model.Tool) (model.ToolUpdateResult, error) {
	var out model.ToolUpdateResult
	err := c.do(ctx, http.MethodPost, "/api/tools/update/"+url.PathEscape(string(tool)), nil, &out)
	return out, err
}

func (c *Client) AppInfo(ctx context.Context) (model.AppInfo, error) {
	var out model.AppInfo
	err := c.do(ctx, http.MethodGet, "/api/appinfo", nil, &out)
	return out, err
}

func (c *Client) SetDestDir(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodPost, "/api/set_dest_dir", map[string]string{"path": path}, nil)
}

// Scan starts a scan job and returns its id.
func (c *Client) Scan(ctx context.Context, pageURL string, ultra bool) (string, error) {
	body := struct {
		URL   string `json:"url"`
		Ultra bool   `json:"ultra"`
	}{URL: pageURL, Ultra: ultra}
	var out jobResponse
	if err := c.do(ctx, http.MethodPost, "/api/scan", body, &out); err != nil {
		return "", err
	}
	return out.id("/api/scan")
}

func (c *Client) Stop(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodPost, "/api/stop/"+url.PathEscape(jobID), nil, nil)
}

func (c *Client) Status(ctx context.Context, jobID string) (model.Job, error) {
	var out model.Job
	err := c.do(ctx, http.MethodGet, "/api/status/"+url.PathEscape(jobID), nil, &out)
	if err == nil && out.ID == "" {
		out.ID = jobID
	}
	return out, err
}

func (c *Client) Items(ctx context.Context, jobID string) ([]model.Item, error) {
	var out struct {
		Items []model.Item `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/items/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		out.Items = []model.Item{}
	}
	return out.Items, nil
}

// Direct starts a download of pageURL straight through the tool behind
// engine, without scanning.
func (c *Client) Direct(ctx context.Context, engine model.Engine, pageURL, destDir string) (string, error) {
	var path string
	switch engine {
	case model.EngineGalleryDL:
		path = "/api/gdl_direct"
	case model.EngineYTDLP:
		path = "/api/ytdlp/direct"
	default:
		return "", errors.New("direct download: unsupported engine " + string(engine))
	}
	body := struct {
		URL     string `json:"url"`
		DestDir string `json:"dest_dir"`
	}{URL: pageURL, DestDir: destDir}
	var out jobResponse
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return "", err
	}
	return out.id(path)
}

type downloadItem struct {
	URL string `json:"url"`
}

// Download sends items to the bulk download endpoint. The result is nil when
// the backend does not report counts.
func (c *Client) Download(ctx context.Context, items []model.Item, engine model.Engine, destDir string) (*model.DownloadResult, error) {
	body := struct {
		Items   []downloadItem `json:"items"`
		Engine  model.Engine   `json:"engine"`
		DestDir string         `json:"dest_dir"`
	}{Engine: engine, DestDir: destDir}
	for _, it := range items {
		body.Items = append(body.Items, downloadItem{URL: it.URL})
	}
	var out struct {
		OK     bool                  `json:"ok"`
		Result *model.DownloadResult `json:"result"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/download", body, &out); err != nil {
		return nil, err
	}
	return out.Result, nil
}

func (c *Client) ThumbURL(jobID, itemID string) string {
	return c.endpoint("/api/thumb/" + url.PathEscape(jobID) + "/" + url.PathEscape(itemID) + ".jpg")
}

func (c *Client) ThumbLargeURL(jobID, itemID string) string {
	return c.endpoint("/api/thumb_large/" + url.PathEscape(jobID) + "/" + url.PathEscape(itemID) + ".jpg")
}

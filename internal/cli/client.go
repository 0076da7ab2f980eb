package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Типы ответов повторяют internal/api/dto.go: CLI работает только через HTTP.

// DatasetResponse: dataset из API.
type DatasetResponse struct {
	Namespace      string `json:"namespace"`
	Name           string `json:"name"`
	Type           string `json:"type"`
	PhysicalName   string `json:"physical_name"`
	SourceName     string `json:"source_name"`
	Description    string `json:"description,omitempty"`
	SchemaLocation string `json:"schema_location,omitempty"`
	CurrentVersion string `json:"current_version,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// VersionResponse: версия dataset из API.
type VersionResponse struct {
	Namespace string  `json:"namespace"`
	Dataset   string  `json:"dataset"`
	Version   string  `json:"version"`
	RunID     *string `json:"run_id"`
	CreatedAt string  `json:"created_at"`
}

// RunResponse: run из API.
type RunResponse struct {
	ID               string            `json:"id"`
	Namespace        string            `json:"namespace"`
	Job              string            `json:"job"`
	State            string            `json:"state"`
	Args             map[string]string `json:"args,omitempty"`
	NominalStartTime string            `json:"nominal_start_time,omitempty"`
	NominalEndTime   string            `json:"nominal_end_time,omitempty"`
	StartedAt        string            `json:"started_at,omitempty"`
	EndedAt          string            `json:"ended_at,omitempty"`
	DurationMs       int64             `json:"duration_ms,omitempty"`
	CreatedAt        string            `json:"created_at"`
}

// DatasetRequest: запись dataset.
type DatasetRequest struct {
	Type           string  `json:"type"`
	PhysicalName   string  `json:"physical_name"`
	SourceName     string  `json:"source_name"`
	Description    string  `json:"description,omitempty"`
	SchemaLocation string  `json:"schema_location,omitempty"`
	RunID          *string `json:"run_id"`
}

// CreateRunRequest: создание run.
type CreateRunRequest struct {
	NominalStartTime string            `json:"nominal_start_time,omitempty"`
	NominalEndTime   string            `json:"nominal_end_time,omitempty"`
	Args             map[string]string `json:"args,omitempty"`
}

// APIError: ошибка, которую вернул сервер.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client: HTTP клиент API каталога.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API по адресу baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func datasetPath(namespace, dataset string) string {
	return "/api/v1/namespaces/" + url.PathEscape(namespace) + "/datasets/" + url.PathEscape(dataset)
}

func pageParams(limit int) url.Values {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}

// --- Datasets ---

// ListDatasets возвращает datasets namespace.
func (c *Client) ListDatasets(namespace string, limit int) ([]DatasetResponse, error) {
	var datasets []DatasetResponse
	err := c.get("/api/v1/namespaces/"+url.PathEscape(namespace)+"/datasets", pageParams(limit), &datasets)
	return datasets, err
}

// GetDataset возвращает dataset.
func (c *Client) GetDataset(namespace, dataset string) (*DatasetResponse, error) {
	var ds DatasetResponse
	err := c.get(datasetPath(namespace, dataset), nil, &ds)
	return &ds, err
}

// PutDataset создаёт или обновляет dataset.
// legacy отправляет запрос на устаревший маршрут POST.
func (c *Client) PutDataset(namespace, dataset string, req DatasetRequest, legacy bool) (*DatasetResponse, error) {
	method := http.MethodPut
	if legacy {
		method = http.MethodPost
	}
	var ds DatasetResponse
	err := c.doData(method, datasetPath(namespace, dataset), req, &ds)
	return &ds, err
}

// ListDatasetVersions возвращает версии dataset, новые первыми.
func (c *Client) ListDatasetVersions(namespace, dataset string, limit int) ([]VersionResponse, error) {
	var versions []VersionResponse
	err := c.get(datasetPath(namespace, dataset)+"/versions", pageParams(limit), &versions)
	return versions, err
}

// --- Runs ---

// CreateRun создаёт run для job.
func (c *Client) CreateRun(namespace, job string, req CreateRunRequest) (*RunResponse, error) {
	var run RunResponse
	err := c.doData(http.MethodPost, "/api/v1/namespaces/"+url.PathEscape(namespace)+"/jobs/"+url.PathEscape(job)+"/runs", req, &run)
	return &run, err
}

// ListRuns возвращает runs job.
func (c *Client) ListRuns(namespace, job string, limit int) ([]RunResponse, error) {
	var runs []RunResponse
	err := c.get("/api/v1/namespaces/"+url.PathEscape(namespace)+"/jobs/"+url.PathEscape(job)+"/runs", pageParams(limit), &runs)
	return runs, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+url.PathEscape(id), nil, &run)
	return &run, err
}

// ListRunOutputs возвращает версии, записанные run.
func (c *Client) ListRunOutputs(id string) ([]VersionResponse, error) {
	var outputs []VersionResponse
	err := c.get("/api/v1/runs/"+url.PathEscape(id)+"/outputs", nil, &outputs)
	return outputs, err
}

// MarkRun выполняет действие start, complete, fail или abort.
func (c *Client) MarkRun(id, action string) (*RunResponse, error) {
	var run RunResponse
	err := c.doData(http.MethodPost, "/api/v1/runs/"+url.PathEscape(id)+"/"+action, nil, &run)
	return &run, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.doData(http.MethodGet, path, nil, result)
}

// doData выполняет запрос и разбирает поле data конверта.
// Списки и одиночные объекты приходят в одном и том же поле.
func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
	}
	return apiErr
}

package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/expressup/internal/domain/batch"
	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/domain/order"
	"github.com/rpggio/expressup/internal/express"
)

type batchStub struct {
	scanFn   func(context.Context, string, time.Duration) (*batch.Summary, error)
	uploadFn func(context.Context) (*batch.Summary, error)
	singleFn func(context.Context, string, bool) (*batch.SingleResult, error)
	items    []batch.Item
	runID    string
}

func (b *batchStub) Scan(ctx context.Context, root string, lookback time.Duration) (*batch.Summary, error) {
	return b.scanFn(ctx, root, lookback)
}
func (b *batchStub) UploadSelected(ctx context.Context) (*batch.Summary, error) {
	return b.uploadFn(ctx)
}
func (b *batchStub) HandleSingle(ctx context.Context, dir string, autoUpload bool) (*batch.SingleResult, error) {
	return b.singleFn(ctx, dir, autoUpload)
}
func (b *batchStub) Items() []batch.Item { return b.items }
func (b *batchStub) RunID() string       { return b.runID }

type statusStub struct {
	getFn func(context.Context, string) ([]express.StatusRecord, error)
}

func (s statusStub) GetStatus(ctx context.Context, orderID string) ([]express.StatusRecord, error) {
	return s.getFn(ctx, orderID)
}
func (s statusStub) InspectURL(id string) string {
	return "https://express.test/Inspect/" + id
}

type journalStub struct {
	recentFn func(context.Context, journal.ListOptions) ([]journal.Entry, error)
}

func (j journalStub) Recent(ctx context.Context, opts journal.ListOptions) ([]journal.Entry, error) {
	return j.recentFn(ctx, opts)
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testNow }
	}
	cfg.Location = time.UTC
	server := NewServer(cfg)

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call(t *testing.T, cs *sdkmcp.ClientSession, name string, args map[string]any, out any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return res
}

func errorText(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestServer_ListsTools(t *testing.T) {
	cs := connect(t, Config{})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"inspect_order", "get_order_status", "handle_order",
		"scan_orders", "upload_orders", "get_recent_activity",
	}, names)
}

func TestInspectOrder(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "A1")
	created := testNow.Add(-2 * time.Hour).Unix()
	files := map[string]string{
		"A1.xml": fmt.Sprintf(`<DentalContainer><Object type="TDM_Item_ModelJob">
<Property name="CreateDate" value="%d"/><Property name="ProcessStatusID" value="psScanned"/>
<Property name="ProcessLockID" value="plReady"/></Object></DentalContainer>`, created),
		"Scans/PreparationScan.dcm": "prep",
		"Scans/notes.txt":           "notes",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	cs := connect(t, Config{})
	var info OrderInfo
	res := call(t, cs, "inspect_order", map[string]any{"dir": dir}, &info)
	require.False(t, res.IsError)

	require.Equal(t, "A1", info.OrderID)
	require.Equal(t, "A1/A1.xml", info.OrderFile)
	require.Equal(t, time.Unix(created, 0).UTC().Format(time.RFC3339), info.CreatedUTC)
	require.True(t, info.Scanned)
	require.False(t, info.Locked)
	require.True(t, info.Eligible)
	require.ElementsMatch(t, []string{"A1/A1.xml", "A1/Scans/PreparationScan.dcm", "A1/Scans/notes.txt"}, info.Files)
	require.Equal(t, []string{"A1/A1.xml", "A1/Scans/PreparationScan.dcm"}, info.LegacyFiles)
}

func TestInspectOrder_NotAnOrder(t *testing.T) {
	cs := connect(t, Config{})
	res := call(t, cs, "inspect_order", map[string]any{"dir": t.TempDir()}, nil)
	require.Contains(t, errorText(t, res), "NOT_AN_ORDER")
}

func TestGetOrderStatus(t *testing.T) {
	reviewed := testNow.Add(-time.Hour)
	accepted, fresh := 1, 0
	var gotID string
	cs := connect(t, Config{Services: Services{Status: statusStub{
		getFn: func(_ context.Context, id string) ([]express.StatusRecord, error) {
			gotID = id
			return []express.StatusRecord{
				{ID: "e1", CreatedUTC: testNow.Add(-48 * time.Hour), ReviewedUTC: &reviewed, Code: &accepted},
				{ID: "e2", CreatedUTC: testNow.Add(-3 * time.Hour), Code: &fresh},
			}, nil
		},
	}}})

	var resp OrderStatusResponse
	res := call(t, cs, "get_order_status", map[string]any{"order_id": "A1"}, &resp)
	require.False(t, res.IsError)
	require.Equal(t, "A1", gotID)
	require.Len(t, resp.Records, 2)

	require.Equal(t, "accepted", resp.Records[0].Status)
	require.Equal(t, "Design was accepted and downloaded at 2024-06-01 11:00.", resp.Records[0].Description)
	require.Equal(t, reviewed.Format(time.RFC3339), resp.Records[0].ReviewedUTC)
	require.Empty(t, resp.Records[0].InspectURL)

	require.Equal(t, "new", resp.Records[1].Status)
	require.Equal(t, "https://express.test/Inspect/e2", resp.Records[1].InspectURL)
}

func TestGetOrderStatus_ServerError(t *testing.T) {
	cs := connect(t, Config{Services: Services{Status: statusStub{
		getFn: func(context.Context, string) ([]express.StatusRecord, error) {
			return nil, &express.StatusError{Op: "status", Code: 500}
		},
	}}})

	res := call(t, cs, "get_order_status", map[string]any{"order_id": "A1"}, nil)
	require.Contains(t, errorText(t, res), "SERVER_ERROR")
}

func TestScanAndUploadOrders(t *testing.T) {
	var gotRoot string
	var gotLookback time.Duration
	stub := &batchStub{
		runID: "run-1",
		items: []batch.Item{
			{OrderID: "A1", State: batch.StateSelected, Outcome: &order.FilterOutcome{Kind: "crown"}},
			{OrderID: "B2", State: batch.StateUploadedBefore, Message: "Design is in progress."},
		},
	}
	stub.scanFn = func(_ context.Context, root string, lookback time.Duration) (*batch.Summary, error) {
		gotRoot, gotLookback = root, lookback
		return &batch.Summary{InDirectory: 3, CreatedInPeriod: 2, UploadedBefore: 1, Qualified: 1, Selected: 1}, nil
	}
	stub.uploadFn = func(context.Context) (*batch.Summary, error) {
		stub.items[0].State = batch.StateUploaded
		return &batch.Summary{InDirectory: 3, CreatedInPeriod: 2, UploadedBefore: 1, Qualified: 1, Selected: 1, UploadedNow: 1}, nil
	}
	cs := connect(t, Config{Services: Services{Batch: stub}, RootDir: "/orders"})

	var scanned BatchResponse
	res := call(t, cs, "scan_orders", map[string]any{}, &scanned)
	require.False(t, res.IsError)
	require.Equal(t, "/orders", gotRoot)
	require.Equal(t, 24*time.Hour, gotLookback)
	require.Equal(t, "run-1", scanned.RunID)
	require.Equal(t, 1, scanned.Summary.Selected)
	require.Equal(t, []ItemEntry{
		{OrderID: "A1", State: "selected", Kind: "crown"},
		{OrderID: "B2", State: "uploaded_before", Message: "Design is in progress."},
	}, scanned.Items)

	res = call(t, cs, "scan_orders", map[string]any{"root": "/other", "lookback_hours": 2.5}, &scanned)
	require.False(t, res.IsError)
	require.Equal(t, "/other", gotRoot)
	require.Equal(t, 150*time.Minute, gotLookback)

	var uploaded BatchResponse
	res = call(t, cs, "upload_orders", map[string]any{}, &uploaded)
	require.False(t, res.IsError)
	require.Equal(t, 1, uploaded.Summary.UploadedNow)
	require.Equal(t, "uploaded", uploaded.Items[0].State)
}

func TestScanOrders_Errors(t *testing.T) {
	stub := &batchStub{
		scanFn: func(context.Context, string, time.Duration) (*batch.Summary, error) {
			return nil, fmt.Errorf("%w: /missing", batch.ErrRootNotFound)
		},
		uploadFn: func(context.Context) (*batch.Summary, error) {
			return nil, batch.ErrCancelled
		},
	}
	cs := connect(t, Config{Services: Services{Batch: stub}})

	res := call(t, cs, "scan_orders", map[string]any{"lookback_hours": -1}, nil)
	require.Contains(t, errorText(t, res), "INVALID_LOOKBACK")

	res = call(t, cs, "scan_orders", map[string]any{"root": "/missing"}, nil)
	require.Contains(t, errorText(t, res), "ROOT_NOT_FOUND")

	res = call(t, cs, "upload_orders", map[string]any{}, nil)
	require.Contains(t, errorText(t, res), "CANCELLED")
}

func TestHandleOrder(t *testing.T) {
	code := 0
	var gotUpload bool
	cs := connect(t, Config{Services: Services{
		Status: statusStub{},
		Batch: &batchStub{singleFn: func(_ context.Context, dir string, upload bool) (*batch.SingleResult, error) {
			gotUpload = upload
			if dir == "/orders/A1" {
				return &batch.SingleResult{OrderID: "A1", State: batch.SingleUploaded, Message: "Sent for design.",
					Outcome: &order.FilterOutcome{Kind: "crown"}}, nil
			}
			return &batch.SingleResult{OrderID: "B2", State: batch.SingleKnown, Message: "Design is ready for review on the web site.",
				Record: &express.StatusRecord{ID: "e9", Code: &code}}, nil
		}},
	}})

	var resp HandleOrderResponse
	res := call(t, cs, "handle_order", map[string]any{"dir": "/orders/A1", "upload": true}, &resp)
	require.False(t, res.IsError)
	require.True(t, gotUpload)
	require.Equal(t, HandleOrderResponse{OrderID: "A1", State: "uploaded", Message: "Sent for design.", Kind: "crown"}, resp)

	resp = HandleOrderResponse{}
	res = call(t, cs, "handle_order", map[string]any{"dir": "/orders/B2"}, &resp)
	require.False(t, res.IsError)
	require.False(t, gotUpload)
	require.Equal(t, "uploaded_before", resp.State)
	require.Equal(t, "new", resp.Status)
	require.Equal(t, "https://express.test/Inspect/e9", resp.InspectURL)
}

func TestGetRecentActivity(t *testing.T) {
	var got journal.ListOptions
	cs := connect(t, Config{Services: Services{Journal: journalStub{
		recentFn: func(_ context.Context, opts journal.ListOptions) ([]journal.Entry, error) {
			got = opts
			if opts.Outcome != nil && !opts.Outcome.Valid() {
				return nil, journal.ErrInvalidInput
			}
			return []journal.Entry{{RunID: "run-1", OrderID: "A1", Outcome: journal.OutcomeFailed, Message: "boom", CreatedAt: testNow}}, nil
		},
	}}})

	var resp RecentActivityResponse
	res := call(t, cs, "get_recent_activity", map[string]any{"outcome": "failed", "limit": 5}, &resp)
	require.False(t, res.IsError)
	require.Equal(t, 5, got.Limit)
	require.NotNil(t, got.Outcome)
	require.Equal(t, journal.OutcomeFailed, *got.Outcome)
	require.Equal(t, []ActivityEntry{{RunID: "run-1", OrderID: "A1", Outcome: "failed", Message: "boom", CreatedAt: "2024-06-01T12:00:00Z"}}, resp.Entries)

	res = call(t, cs, "get_recent_activity", map[string]any{"outcome": "exploded"}, nil)
	require.Contains(t, errorText(t, res), "INVALID_INPUT")
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))

	plain := fmt.Errorf("plain")
	require.Equal(t, plain, MapError(plain))

	mapped := MapError(fmt.Errorf("wrapped: %w", batch.ErrNotAnOrder))
	var apiErr *APIError
	require.ErrorAs(t, mapped, &apiErr)
	require.Equal(t, "NOT_AN_ORDER", apiErr.Code)
	require.ErrorIs(t, mapped, batch.ErrNotAnOrder)
}

func TestTrafficLogging_ToolCalls(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cs := connect(t, Config{Logger: logger})

	res := call(t, cs, "inspect_order", map[string]any{"dir": t.TempDir()}, nil)
	require.True(t, res.IsError)

	out := buf.String()
	require.Contains(t, out, "tool call")
	require.Contains(t, out, "tool=inspect_order")
	require.Contains(t, out, "failed=true")
	require.NotContains(t, out, "mcp traffic")
}

package mcp

import (
	"context"
	"fmt"
	"slices"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/expressup/internal/domain/batch"
	"github.com/rpggio/expressup/internal/domain/journal"
	"github.com/rpggio/expressup/internal/domain/order"
	"github.com/rpggio/expressup/internal/express"
)

func registerTools(server *sdkmcp.Server, t *tools) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "inspect_order",
		Description: "Read an order directory: lifecycle fields, files, and the files the local rule would send",
	}, t.inspectOrder)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_order_status",
		Description: "List what the design service recorded for earlier uploads of an order",
	}, t.getOrderStatus)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "handle_order",
		Description: "Check one order against the design service and optionally upload it",
	}, t.handleOrder)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "scan_orders",
		Description: "Scan the orders root and select new orders that qualify for upload",
	}, t.scanOrders)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "upload_orders",
		Description: "Upload the orders selected by the last scan",
	}, t.uploadOrders)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recorded order outcomes, newest first",
	}, t.recentActivity)
}

func (t *tools) inspectOrder(_ context.Context, _ *sdkmcp.CallToolRequest, in InspectOrderParams) (*sdkmcp.CallToolResult, OrderInfo, error) {
	h, ok := order.ValidateDir(in.Dir)
	if !ok {
		return nil, OrderInfo{}, MapError(fmt.Errorf("%w: %s", batch.ErrNotAnOrder, in.Dir))
	}
	info := h.StatusInfo()
	cutoff := t.cfg.Now().Add(-t.cfg.Lookback)
	return nil, OrderInfo{
		OrderID:     h.OrderID(),
		OrderFile:   h.OrderFilePath(),
		CreatedUTC:  formatTime(info.CreatedUTC),
		Scanned:     info.Scanned,
		Locked:      info.Locked,
		Eligible:    info.Eligible(cutoff),
		Files:       nonNil(slices.Collect(h.AllRelativePaths())),
		LegacyFiles: nonNil(order.LegacyOutcome(h).Paths),
	}, nil
}

func (t *tools) getOrderStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetOrderStatusParams) (*sdkmcp.CallToolResult, OrderStatusResponse, error) {
	if in.OrderID == "" {
		return nil, OrderStatusResponse{}, &APIError{Code: "INVALID_INPUT", Message: "order_id is required"}
	}
	records, err := t.cfg.Services.Status.GetStatus(ctx, in.OrderID)
	if err != nil {
		return nil, OrderStatusResponse{}, MapError(err)
	}
	resp := OrderStatusResponse{OrderID: in.OrderID, Records: make([]StatusEntry, 0, len(records))}
	for _, rec := range records {
		resp.Records = append(resp.Records, t.statusEntry(rec))
	}
	return nil, resp, nil
}

func (t *tools) statusEntry(rec express.StatusRecord) StatusEntry {
	entry := StatusEntry{
		ID:          rec.ID,
		Status:      express.Classify(rec).String(),
		Description: express.Describe(rec, t.cfg.Location),
		CreatedUTC:  formatTime(rec.CreatedUTC),
	}
	if rec.ReviewedUTC != nil {
		entry.ReviewedUTC = formatTime(*rec.ReviewedUTC)
	}
	if express.Reviewable(rec) {
		entry.InspectURL = t.cfg.Services.Status.InspectURL(rec.ID)
	}
	return entry
}

func (t *tools) handleOrder(ctx context.Context, _ *sdkmcp.CallToolRequest, in HandleOrderParams) (*sdkmcp.CallToolResult, HandleOrderResponse, error) {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	result, err := t.cfg.Services.Batch.HandleSingle(ctx, in.Dir, in.Upload)
	if err != nil {
		return nil, HandleOrderResponse{}, MapError(err)
	}
	resp := HandleOrderResponse{
		OrderID: result.OrderID,
		State:   string(result.State),
		Message: result.Message,
	}
	if result.Outcome != nil {
		resp.Kind = result.Outcome.Kind
	}
	if result.Record != nil {
		entry := t.statusEntry(*result.Record)
		resp.Status = entry.Status
		resp.InspectURL = entry.InspectURL
	}
	return nil, resp, nil
}

func (t *tools) scanOrders(ctx context.Context, _ *sdkmcp.CallToolRequest, in ScanOrdersParams) (*sdkmcp.CallToolResult, BatchResponse, error) {
	root := in.Root
	if root == "" {
		root = t.cfg.RootDir
	}
	lookback := t.cfg.Lookback
	if in.LookbackHours != nil {
		d, err := batch.LookbackHours(*in.LookbackHours)
		if err != nil {
			return nil, BatchResponse{}, MapError(err)
		}
		lookback = d
	}

	t.runMu.Lock()
	defer t.runMu.Unlock()

	summary, err := t.cfg.Services.Batch.Scan(ctx, root, lookback)
	if err != nil {
		return nil, BatchResponse{}, MapError(err)
	}
	return nil, t.batchResponse(summary), nil
}

func (t *tools) uploadOrders(ctx context.Context, _ *sdkmcp.CallToolRequest, _ UploadOrdersParams) (*sdkmcp.CallToolResult, BatchResponse, error) {
	t.runMu.Lock()
	defer t.runMu.Unlock()

	summary, err := t.cfg.Services.Batch.UploadSelected(ctx)
	if err != nil {
		return nil, BatchResponse{}, MapError(err)
	}
	return nil, t.batchResponse(summary), nil
}

func (t *tools) batchResponse(summary *batch.Summary) BatchResponse {
	items := t.cfg.Services.Batch.Items()
	resp := BatchResponse{
		RunID:   t.cfg.Services.Batch.RunID(),
		Summary: SummaryResponse(*summary),
		Items:   make([]ItemEntry, 0, len(items)),
	}
	for _, item := range items {
		entry := ItemEntry{OrderID: item.OrderID, State: string(item.State), Message: item.Message}
		if item.Outcome != nil {
			entry.Kind = item.Outcome.Kind
		}
		resp.Items = append(resp.Items, entry)
	}
	return resp
}

func (t *tools) recentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecentActivityParams) (*sdkmcp.CallToolResult, RecentActivityResponse, error) {
	opts := journal.ListOptions{
		RunID:   in.RunID,
		OrderID: in.OrderID,
		Limit:   in.Limit,
		Offset:  in.Offset,
	}
	if in.Outcome != "" {
		outcome := journal.Outcome(in.Outcome)
		opts.Outcome = &outcome
	}
	entries, err := t.cfg.Services.Journal.Recent(ctx, opts)
	if err != nil {
		return nil, RecentActivityResponse{}, MapError(err)
	}
	resp := RecentActivityResponse{Entries: make([]ActivityEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, ActivityEntry{
			RunID:     e.RunID,
			OrderID:   e.OrderID,
			Outcome:   string(e.Outcome),
			Message:   e.Message,
			CreatedAt: formatTime(e.CreatedAt),
		})
	}
	return nil, resp, nil
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `expressup uploads dental scan orders to the design service.

An order is a directory <id> holding <id>/<id>.xml. A batch pass has two steps:
1) scan_orders: walk the orders root, keep orders created within the lookback window
   that are scanned and not checked out, ask the service about each one and select
   the new ones that qualify.
2) upload_orders: upload every selected order. Call it again after a cancellation
   or failure to resume; uploaded orders are never sent twice in one process.

For a single order use inspect_order (local only) and handle_order (asks the service,
uploads with upload=true). get_order_status and get_recent_activity are read only.

The login session belongs to the CLI: run "expressup login --remember" first.
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "expressup://docs/states",
		Name:        "docs_states",
		Title:       "order states",
		Description: "What each item state and status means.",
		Content: `# Order states

Item states reported by scan_orders and upload_orders:

- selected: new on the service and qualifies; the next upload_orders sends it.
- uploaded: sent during this process.
- uploaded_before: the service already has at least one upload of this order.
- not_qualified: the service does not recognize the order or rejected its files.
- failed: a status lookup, qualification or upload failed; upload_orders retries it.
- cancelled: the upload was cancelled; upload_orders retries it.

Status values reported by get_order_status:

- new: the design is ready for review on the web site (inspect_url links to it).
- in_progress: the design is being produced.
- accepted / rejected: reviewed.
- failed: the design could not be produced.
- forwarded: handed over for manual processing.
- unknown: the service gave no usable status.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

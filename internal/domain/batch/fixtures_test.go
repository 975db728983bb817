package batch_test

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/expressup/internal/domain/order"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

type orderFixture struct {
	created time.Time
	status  string
	lock    string
	files   map[string]string
}

func recentOrder() orderFixture {
	return orderFixture{created: testNow.Add(-time.Hour), status: "psScanned", lock: "plNone"}
}

func addOrder(t *testing.T, fs billy.Filesystem, id string, fx orderFixture) {
	t.Helper()
	xml := fmt.Sprintf(`<DentalContainer><Object type="TDM_Item_ModelJob">
<Property name="CreateDate" value="%d"/>
<Property name="ProcessStatusID" value="%s"/>
<Property name="ProcessLockID" value="%s"/>
</Object></DentalContainer>`, fx.created.Unix(), fx.status, fx.lock)
	write(t, fs, id+"/"+id+".xml", xml)
	write(t, fs, id+"/Scans/PreparationScan.dcm", "scan-"+id)
	for name, content := range fx.files {
		write(t, fs, id+"/"+name, content)
	}
}

func write(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
}

func outcomeFor(id string) *order.FilterOutcome {
	return &order.FilterOutcome{
		Kind:      "crown",
		OrderPath: id + "/" + id + ".xml",
		Paths:     []string{id + "/" + id + ".xml", id + "/Scans/PreparationScan.dcm"},
	}
}

func handlerFor(id string) any {
	return mock.MatchedBy(func(h *order.Handler) bool { return h.OrderID() == id })
}

func code(n int) *int { return &n }

package order

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

const (
	markerType = "TDM_Item_ModelJob"

	fieldCreateDate    = "CreateDate"
	fieldProcessStatus = "ProcessStatusID"
	fieldProcessLock   = "ProcessLockID"

	statusScanned  = "psScanned"
	lockCheckedOut = "plCheckedOut"
)

// parseDescriptor never fails; anything it cannot read keeps its default.
func parseDescriptor(data []byte) StatusInfo {
	info := DefaultStatusInfo()

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return info
	}

	marker := findFirst(&doc.Element, attrEquals("type", markerType))
	if marker == nil {
		return info
	}

	if v, ok := fieldValue(marker, fieldCreateDate); ok {
		if created, ok := parseEpoch(v); ok {
			info.CreatedUTC = created
		}
	}
	if v, ok := fieldValue(marker, fieldProcessStatus); ok {
		info.Scanned = v == statusScanned
	}
	if v, ok := fieldValue(marker, fieldProcessLock); ok {
		info.Locked = v == lockCheckedOut
	}
	return info
}

func attrEquals(key, value string) func(*etree.Element) bool {
	return func(el *etree.Element) bool {
		return el.SelectAttrValue(key, "") == value
	}
}

// findFirst returns the first descendant of root, in document order, matching pred.
func findFirst(root *etree.Element, pred func(*etree.Element) bool) *etree.Element {
	for _, child := range root.ChildElements() {
		if pred(child) {
			return child
		}
		if found := findFirst(child, pred); found != nil {
			return found
		}
	}
	return nil
}

func fieldValue(marker *etree.Element, name string) (string, bool) {
	field := findFirst(marker, attrEquals("name", name))
	if field == nil {
		return "", false
	}
	if attr := field.SelectAttr("value"); attr != nil {
		return strings.TrimSpace(attr.Value), true
	}
	return strings.TrimSpace(field.Text()), true
}

// parseEpoch reads Unix seconds, allowing a fractional part.
func parseEpoch(v string) (time.Time, bool) {
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return time.Time{}, false
	}
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64((secs-whole)*1e9)).UTC(), true
}

package sync

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// NoSalesAgent is the denormalized sales-rep name used when the channel id
// is absent or not present in the reference table.
const NoSalesAgent = "No Sales Agent Selected"

// SalesRepTable maps sales channel ids to display names. Loaded once per
// reconcile run; read-only afterwards.
type SalesRepTable struct {
	byChannel map[int64]string
}

// LoadSalesReps reads the sales-rep reference CSV. The file must carry a
// header row with sales_channel_id and Sales_Channel_Text columns.
func LoadSalesReps(path string) (*SalesRepTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "salesrep: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "salesrep: read %s", path)
	}
	if len(rows) == 0 {
		return &SalesRepTable{byChannel: map[int64]string{}}, nil
	}

	idCol, textCol := -1, -1
	for i, name := range rows[0] {
		switch strings.TrimSpace(name) {
		case "sales_channel_id":
			idCol = i
		case "Sales_Channel_Text":
			textCol = i
		}
	}
	if idCol < 0 || textCol < 0 {
		return nil, eris.Errorf("salesrep: %s: missing sales_channel_id or Sales_Channel_Text column", path)
	}

	table := &SalesRepTable{byChannel: make(map[int64]string, len(rows)-1)}
	for _, row := range rows[1:] {
		if idCol >= len(row) || textCol >= len(row) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(row[idCol]), 10, 64)
		if err != nil {
			continue
		}
		table.byChannel[id] = strings.TrimSpace(row[textCol])
	}
	return table, nil
}

// Lookup resolves a nullable sales channel id to its display name, falling
// back to NoSalesAgent when the id is nil or unmapped.
func (t *SalesRepTable) Lookup(channelID *int64) string {
	if t == nil || channelID == nil {
		return NoSalesAgent
	}
	if name, ok := t.byChannel[*channelID]; ok && name != "" {
		return name
	}
	return NoSalesAgent
}

// Len returns the number of mapped channels.
func (t *SalesRepTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byChannel)
}

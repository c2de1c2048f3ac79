package sync

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
)

// TicketTypes is the ticket-type reference table loaded once per reconcile
// run. Work orders are not processed when the table is empty.
type TicketTypes map[string]any

// LoadTicketTypes reads the ticket-type reference JSON file.
func LoadTicketTypes(path string) (TicketTypes, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tickettypes: read %s", path)
	}

	var types TicketTypes
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, eris.Wrapf(err, "tickettypes: decode %s", path)
	}
	return types, nil
}

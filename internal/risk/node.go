// Package risk holds the scoring, graph construction, and compromise
// propagation logic for the HR risk model.
package risk

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type NodeKind string

const (
	KindPerson NodeKind = "person"
	KindEntity NodeKind = "entity"
)

// NodeID tags a numeric HR id with its kind so person and entity ids can
// never collide. Internal graph logic compares NodeIDs; the string forms
// ("7", "entity_7") exist only at the serialization boundary.
type NodeID struct {
	Kind NodeKind
	ID   int
}

func PersonID(id int) NodeID { return NodeID{Kind: KindPerson, ID: id} }
func EntityID(id int) NodeID { return NodeID{Kind: KindEntity, ID: id} }

const entityIDPrefix = "entity_"

func (n NodeID) String() string {
	if n.Kind == KindEntity {
		return entityIDPrefix + strconv.Itoa(n.ID)
	}
	return strconv.Itoa(n.ID)
}

// ParseNodeID reads the wire form: a bare integer is a person id,
// "entity_<n>" is an entity id.
func ParseNodeID(s string) (NodeID, error) {
	if raw, ok := strings.CutPrefix(s, entityIDPrefix); ok {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return NodeID{}, fmt.Errorf("invalid entity node id %q", s)
		}
		return EntityID(id), nil
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return NodeID{}, fmt.Errorf("invalid node id %q", s)
	}
	return PersonID(id), nil
}

func (n NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

func (n *NodeID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseNodeID(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}

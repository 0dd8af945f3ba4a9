package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperifyio/quizpilot/internal/dom"
)

// rawAXNode mirrors the devtools Accessibility.getFullAXTree node shape.
type rawAXNode struct {
	NodeID   string      `json:"nodeId"`
	Ignored  bool        `json:"ignored"`
	Role     *rawAXValue `json:"role"`
	Name     *rawAXValue `json:"name"`
	ChildIDs []string    `json:"childIds"`
	ParentID string      `json:"parentId"`
}

type rawAXValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (v *rawAXValue) String() string {
	if v == nil || v.Value == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(v.Value, &s); err == nil {
		return s
	}
	return strings.Trim(string(v.Value), `"`)
}

// axTree fetches the full accessibility tree of the current page over a
// devtools session and assembles it into the generic node form the option
// walk consumes. The session is scoped to this one call.
func (c *Controller) axTree(ctx context.Context) (*dom.AXNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session, err := c.bctx.NewCDPSession(c.page)
	if err != nil {
		return nil, fmt.Errorf("cdp session: %w", translate(err))
	}
	defer session.Detach()

	result, err := session.Send("Accessibility.getFullAXTree", map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("accessibility tree: %w", translate(err))
	}
	return buildAXTree(result)
}

// buildAXTree converts the raw devtools payload into a linked tree. Ignored
// nodes are elided with their children promoted in place, matching how
// accessibility snapshots present the tree.
func buildAXTree(result interface{}) (*dom.AXNode, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode ax payload: %w", err)
	}
	var payload struct {
		Nodes []rawAXNode `json:"nodes"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode ax payload: %w", err)
	}
	if len(payload.Nodes) == 0 {
		return nil, nil
	}

	byID := make(map[string]*rawAXNode, len(payload.Nodes))
	for i := range payload.Nodes {
		byID[payload.Nodes[i].NodeID] = &payload.Nodes[i]
	}

	var build func(n *rawAXNode) []*dom.AXNode
	build = func(n *rawAXNode) []*dom.AXNode {
		if n == nil {
			return nil
		}
		var children []*dom.AXNode
		for _, id := range n.ChildIDs {
			children = append(children, build(byID[id])...)
		}
		if n.Ignored {
			return children
		}
		return []*dom.AXNode{{
			Role:     n.Role.String(),
			Name:     n.Name.String(),
			Children: children,
		}}
	}

	// getFullAXTree lists the root first.
	roots := build(&payload.Nodes[0])
	switch len(roots) {
	case 0:
		return nil, nil
	case 1:
		return roots[0], nil
	default:
		return &dom.AXNode{Children: roots}, nil
	}
}

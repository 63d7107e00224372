// Package bpmn is the diagram-format boundary: it extracts a flow graph
// from BPMN XML and renders the dashboard's importable diagram from graph
// data. Nothing else in the service understands BPMN.
package bpmn

import (
	"fmt"
	"strconv"

	"risk-backend/internal/risk"
	"risk-backend/internal/simulation"

	"github.com/beevik/etree"
)

// ParseFlow reads every sequenceFlow element (any namespace prefix) and
// returns the directed flow graph. Edges carry the default weight 1.
func ParseFlow(xml []byte) (*simulation.FlowGraph, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xml); err != nil {
		return nil, fmt.Errorf("parse bpmn: %w", err)
	}

	g := simulation.NewFlowGraph()
	collectFlows(&doc.Element, g)
	return g, nil
}

func collectFlows(el *etree.Element, g *simulation.FlowGraph) {
	for _, child := range el.ChildElements() {
		if child.Tag == "sequenceFlow" {
			src := child.SelectAttrValue("sourceRef", "")
			tgt := child.SelectAttrValue("targetRef", "")
			if src != "" && tgt != "" {
				g.AddEdge(src, tgt, 1.0)
			}
		}
		collectFlows(child, g)
	}
}

// FlowNodeID renders the diagram id for a graph node: Person_<id> or
// Entity_<id>.
func FlowNodeID(id risk.NodeID) string {
	if id.Kind == risk.KindEntity {
		return "Entity_" + strconv.Itoa(id.ID)
	}
	return "Person_" + strconv.Itoa(id.ID)
}

// Diagram layout constants: persons on the top row, entities on the
// bottom, fixed task size.
const (
	originX = 150
	originY = 100
	stepX   = 200
	stepY   = 150
	taskW   = 100
	taskH   = 80
)

// RenderDiagram builds the BPMN document (with DI shapes and edges) for a
// graph view: one userTask per person, one serviceTask per entity, one
// sequenceFlow per link. Links whose endpoints are not in the node list
// are left out.
func RenderDiagram(view *risk.GraphView) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	defs := doc.CreateElement("bpmn:definitions")
	defs.CreateAttr("xmlns:bpmn", "http://www.omg.org/spec/BPMN/20100524/MODEL")
	defs.CreateAttr("xmlns:bpmndi", "http://www.omg.org/spec/BPMN/20100524/DI")
	defs.CreateAttr("xmlns:dc", "http://www.omg.org/spec/DD/20100524/DC")
	defs.CreateAttr("xmlns:di", "http://www.omg.org/spec/DD/20100524/DI")
	defs.CreateAttr("id", "Definitions_1")
	defs.CreateAttr("targetNamespace", "http://bpmn.io/schema/bpmn")

	proc := defs.CreateElement("bpmn:process")
	proc.CreateAttr("id", "Process_1")
	proc.CreateAttr("isExecutable", "false")

	type shape struct {
		bpmnID string
		x, y   int
	}
	shapes := make([]shape, 0, len(view.Nodes))
	byNode := make(map[risk.NodeID]string, len(view.Nodes))

	personCol, entityCol := 0, 0
	for _, n := range view.Nodes {
		bpmnID := FlowNodeID(n.ID)
		byNode[n.ID] = bpmnID

		var task *etree.Element
		var col, row int
		if n.Type == risk.KindEntity {
			task = proc.CreateElement("bpmn:serviceTask")
			col, row = entityCol, 1
			entityCol++
		} else {
			task = proc.CreateElement("bpmn:userTask")
			col, row = personCol, 0
			personCol++
		}
		task.CreateAttr("id", bpmnID)
		task.CreateAttr("name", n.FullName)

		shapes = append(shapes, shape{bpmnID: bpmnID, x: originX + col*stepX, y: originY + row*stepY})
	}

	type flow struct {
		id       string
		src, tgt string
	}
	flows := make([]flow, 0, len(view.Links))
	for i, l := range view.Links {
		src, okS := byNode[l.Source]
		tgt, okT := byNode[l.Target]
		if !okS || !okT {
			continue
		}
		f := flow{id: fmt.Sprintf("Flow_%d", i+1), src: src, tgt: tgt}
		flows = append(flows, f)

		seq := proc.CreateElement("bpmn:sequenceFlow")
		seq.CreateAttr("id", f.id)
		seq.CreateAttr("sourceRef", f.src)
		seq.CreateAttr("targetRef", f.tgt)
	}

	diagram := defs.CreateElement("bpmndi:BPMNDiagram")
	diagram.CreateAttr("id", "BPMNDiagram_1")
	plane := diagram.CreateElement("bpmndi:BPMNPlane")
	plane.CreateAttr("id", "BPMNPlane_1")
	plane.CreateAttr("bpmnElement", "Process_1")

	coords := make(map[string][2]int, len(shapes))
	for _, s := range shapes {
		coords[s.bpmnID] = [2]int{s.x, s.y}

		shp := plane.CreateElement("bpmndi:BPMNShape")
		shp.CreateAttr("id", s.bpmnID+"_di")
		shp.CreateAttr("bpmnElement", s.bpmnID)
		bounds := shp.CreateElement("dc:Bounds")
		bounds.CreateAttr("x", strconv.Itoa(s.x))
		bounds.CreateAttr("y", strconv.Itoa(s.y))
		bounds.CreateAttr("width", strconv.Itoa(taskW))
		bounds.CreateAttr("height", strconv.Itoa(taskH))
	}

	for _, f := range flows {
		edge := plane.CreateElement("bpmndi:BPMNEdge")
		edge.CreateAttr("id", f.id+"_di")
		edge.CreateAttr("bpmnElement", f.id)

		s, t := coords[f.src], coords[f.tgt]
		for _, pt := range [][2]int{
			{s[0] + taskW/2, s[1] + taskH/2},
			{t[0] + taskW/2, t[1] + taskH/2},
		} {
			wp := edge.CreateElement("di:waypoint")
			wp.CreateAttr("x", strconv.Itoa(pt[0]))
			wp.CreateAttr("y", strconv.Itoa(pt[1]))
		}
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

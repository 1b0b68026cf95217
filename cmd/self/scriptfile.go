package main

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/selflang/selfcore"
)

// This file supplies the YAML script-AST file format SPEC_FULL.md §5
// describes: since no lexer/parser is in scope (spec.md §1), the driver
// needs some way to obtain a Script from disk, and yaml.v2 is the
// teacher's own dependency for exactly this kind of structured manifest
// (cmd/mkaddon/mkaddon.go), repurposed here rather than inventing a
// bespoke text format.
//
// Every node kind is decoded through a single "kind" discriminator field,
// since yaml.v2 has no native support for unmarshaling into an interface
// type directly.

// LoadScript reads a YAML-encoded script-AST file and converts it into the
// selfcore.Script the interpreter consumes.
func LoadScript(path string) (*selfcore.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc scriptDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("selfcore: parsing %s: %w", path, err)
	}
	stmts, err := convertStatements(doc.Statements, path)
	if err != nil {
		return nil, err
	}
	return &selfcore.Script{Statements: stmts}, nil
}

// scriptDoc is the top-level YAML document shape: a mapping whose
// "statements" key holds the list of statements, each an expression node.
type scriptDoc struct {
	Statements []exprDoc `yaml:"statements"`
}

// slotDoc mirrors selfcore.SlotSpec (spec.md §6's Slot{name, is_mutable,
// is_parent, is_argument, value}).
type slotDoc struct {
	Name       string  `yaml:"name"`
	IsMutable  bool    `yaml:"mutable"`
	IsParent   bool    `yaml:"parent"`
	IsArgument bool    `yaml:"argument"`
	Value      *exprDoc `yaml:"value"`
}

// exprDoc is the generic node shape: kind selects which fields are
// meaningful, following spec.md §6's enumerated expression kinds.
type exprDoc struct {
	Kind      string    `yaml:"kind"`
	Line      int       `yaml:"line"`
	Column    int       `yaml:"column"`
	Name      string    `yaml:"name"`      // identifier name / message selector
	Value     string    `yaml:"value"`     // string literal contents
	Int       *int64    `yaml:"int"`       // number literal, integer form
	Float     *float64  `yaml:"float"`     // number literal, float form
	Receiver  *exprDoc  `yaml:"receiver"`  // message: nil means self-send
	Arguments []exprDoc `yaml:"arguments"` // message arguments
	Slots     []slotDoc `yaml:"slots"`     // object/method/block literal slots; argument slots are Slot{argument: true}
	Body      []exprDoc `yaml:"body"`      // method/block statement list
	IsMethod  bool      `yaml:"is_method"` // block literal: method vs block
	Return    *exprDoc  `yaml:"return"`    // return node operand
}

func convertStatements(docs []exprDoc, file string) ([]selfcore.Statement, error) {
	stmts := make([]selfcore.Statement, len(docs))
	for i, d := range docs {
		e, err := convertExpr(d, file)
		if err != nil {
			return nil, err
		}
		stmts[i] = selfcore.Statement{Expression: e}
	}
	return stmts, nil
}

// ranged is implemented by every concrete selfcore AST node via the
// promoted exprBase.SetRange method.
type ranged interface {
	SetRange(selfcore.SourceRange)
}

func convertExpr(d exprDoc, file string) (selfcore.Expression, error) {
	r := selfcore.SourceRange{File: file, Line: d.Line, Column: d.Column}

	var e selfcore.Expression
	switch d.Kind {
	case "number":
		switch {
		case d.Float != nil:
			e = &selfcore.NumberNode{FloatValue: *d.Float, IsFloat: true}
		case d.Int != nil:
			e = &selfcore.NumberNode{IntValue: *d.Int}
		default:
			return nil, fmt.Errorf("%s:%d:%d: number node missing int/float value", file, d.Line, d.Column)
		}
	case "string":
		e = &selfcore.StringNode{Value: d.Value}
	case "identifier":
		e = &selfcore.IdentifierNode{Name: d.Name}
	case "return":
		if d.Return == nil {
			return nil, fmt.Errorf("%s:%d:%d: return node missing value", file, d.Line, d.Column)
		}
		v, err := convertExpr(*d.Return, file)
		if err != nil {
			return nil, err
		}
		e = &selfcore.ReturnNode{Value: v}
	case "message":
		var recv selfcore.Expression
		if d.Receiver != nil {
			var err error
			recv, err = convertExpr(*d.Receiver, file)
			if err != nil {
				return nil, err
			}
		}
		args := make([]selfcore.Expression, len(d.Arguments))
		for i, a := range d.Arguments {
			ae, err := convertExpr(a, file)
			if err != nil {
				return nil, err
			}
			args[i] = ae
		}
		e = &selfcore.MessageNode{Receiver: recv, Selector: d.Name, Arguments: args}
	case "object":
		slots, err := convertSlots(d.Slots, file)
		if err != nil {
			return nil, err
		}
		e = &selfcore.ObjectLiteral{Slots: slots}
	case "block":
		slots, err := convertSlots(d.Slots, file)
		if err != nil {
			return nil, err
		}
		body, err := convertStatements(d.Body, file)
		if err != nil {
			return nil, err
		}
		e = &selfcore.BlockLiteral{
			IsMethod:   d.IsMethod,
			Slots:      slots,
			Statements: body,
		}
	default:
		return nil, fmt.Errorf("%s:%d:%d: unknown node kind %q", file, d.Line, d.Column, d.Kind)
	}

	if rn, ok := e.(ranged); ok {
		rn.SetRange(r)
	}
	return e, nil
}

func convertSlots(docs []slotDoc, file string) ([]selfcore.SlotSpec, error) {
	slots := make([]selfcore.SlotSpec, len(docs))
	for i, s := range docs {
		spec := selfcore.SlotSpec{
			Name:       s.Name,
			IsMutable:  s.IsMutable,
			IsParent:   s.IsParent,
			IsArgument: s.IsArgument,
		}
		if s.Value != nil {
			v, err := convertExpr(*s.Value, file)
			if err != nil {
				return nil, err
			}
			spec.Value = v
		}
		slots[i] = spec
	}
	return slots, nil
}

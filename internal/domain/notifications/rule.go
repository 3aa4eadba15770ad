package notifications

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"bistro/internal/domain/inventory"
)

var _ inventory.LowStockMatcher = (*LowStockRule)(nil)

// DefaultLowStockRule flags a material once its stock falls to its threshold.
const DefaultLowStockRule = "stock <= minStock"

// LowStockRule is a compiled CEL expression evaluated against each material.
// Available variables: name, unit, stock, minStock, cost.
type LowStockRule struct {
	expr    string
	program cel.Program
}

// NewLowStockRule compiles expr. An empty expr selects DefaultLowStockRule.
func NewLowStockRule(expr string) (*LowStockRule, error) {
	if expr == "" {
		expr = DefaultLowStockRule
	}

	env, err := cel.NewEnv(
		cel.Variable("name", cel.StringType),
		cel.Variable("unit", cel.StringType),
		cel.Variable("stock", cel.DoubleType),
		cel.Variable("minStock", cel.DoubleType),
		cel.Variable("cost", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}

	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile low stock rule %q: %w", expr, iss.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("low stock rule %q must evaluate to bool, got %v", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build low stock program: %w", err)
	}
	return &LowStockRule{expr: expr, program: prg}, nil
}

// String returns the source expression.
func (r *LowStockRule) String() string { return r.expr }

// Match reports whether m is low on stock.
func (r *LowStockRule) Match(m *inventory.Material) (bool, error) {
	stock, _ := m.Stock.Float64()
	minStock, _ := m.MinStock.Float64()
	cost, _ := m.Cost.Float64()

	out, _, err := r.program.Eval(map[string]any{
		"name":     m.Name,
		"unit":     m.Unit,
		"stock":    stock,
		"minStock": minStock,
		"cost":     cost,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate low stock rule for %s: %w", m.ID, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("low stock rule returned %T", out.Value())
	}
	return matched, nil
}

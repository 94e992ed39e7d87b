package movement

import (
	"context"

	"estampa/pkg/logger"
)

// Operation is the fixed catalog of movement causes.
type Operation string

const (
	OpInitialLoad     Operation = "carga_inicial"
	OpPurchase        Operation = "compra"
	OpSale            Operation = "venta"
	OpWaste           Operation = "merma"
	OpManualAdjust    Operation = "ajuste_manual"
	OpPackAssembly    Operation = "armado_pack"
	OpPackDisassembly Operation = "desarme_pack"
	OpDeactivate      Operation = "desactivacion"
	OpRestore         Operation = "restauracion"
	OpPurge           Operation = "purga"
	OpInfoChange      Operation = "cambio_info"
	OpPriceChange     Operation = "cambio_precio"
	OpMinStockChange  Operation = "cambio_stock_minimo"

	// OpUnspecified is the fallback for unknown slugs.
	OpUnspecified Operation = "ajuste"
)

// OpInfo is the resolved triple for an operation slug.
type OpInfo struct {
	// Reason is the default human-readable explanation.
	Reason string
	// Type is the default direction for this cause. Callers that derive
	// direction from a signed delta override it.
	Type Type
}

var operations = map[Operation]OpInfo{
	OpInitialLoad:     {Reason: "Carga inicial de inventario", Type: TypeIn},
	OpPurchase:        {Reason: "Compra de mercadería", Type: TypeIn},
	OpSale:            {Reason: "Venta", Type: TypeOut},
	OpWaste:           {Reason: "Pérdida o daño de mercadería", Type: TypeOut},
	OpManualAdjust:    {Reason: "Ajuste manual de inventario", Type: TypeAdjust},
	OpPackAssembly:    {Reason: "Armado de pack", Type: TypeOut},
	OpPackDisassembly: {Reason: "Desarme de pack", Type: TypeIn},
	OpDeactivate:      {Reason: "Desactivación del producto", Type: TypeAdjust},
	OpRestore:         {Reason: "Restauración del producto", Type: TypeAdjust},
	OpPurge:           {Reason: "Eliminación definitiva del producto", Type: TypeAdjust},
	OpInfoChange:      {Reason: "Actualización de información", Type: TypeAdjust},
	OpPriceChange:     {Reason: "Actualización de precio", Type: TypeAdjust},
	OpMinStockChange:  {Reason: "Actualización de stock mínimo", Type: TypeAdjust},
}

// fallbackInfo matches the historical behavior for unknown slugs:
// a generic "ajuste" with an unspecified reason. Kept intentionally
// lenient; tightening it to an error would break old admin tooling
// that still sends free-form slugs.
var fallbackInfo = OpInfo{Reason: "Sin especificar", Type: TypeAdjust}

// Resolve returns the operation triple for a slug. Unknown slugs fall
// back to the generic adjustment triple and log a warning; they are not
// an error.
func Resolve(ctx context.Context, op Operation) (Operation, OpInfo) {
	if info, ok := operations[op]; ok {
		return op, info
	}
	logger.Warn(ctx, "unknown movement operation, falling back to generic adjustment",
		"operation", string(op),
	)
	return OpUnspecified, fallbackInfo
}

// Known reports whether the slug belongs to the fixed catalog.
func Known(op Operation) bool {
	_, ok := operations[op]
	return ok
}

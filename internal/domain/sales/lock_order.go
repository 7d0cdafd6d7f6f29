package sales

import "sort"

// Line ítem de venta ya validado: producto y cantidad entera positiva.
type Line struct {
	ProductID int64
	Quantity  int
}

// LockOrder devuelve los productos distintos de la venta en orden ascendente de id
// junto con la cantidad total pedida por producto.
// Todos los llamadores bloquean en este orden; así dos ventas que comparten productos
// nunca esperan una por la otra en ciclo.
func LockOrder(lines []Line) (ids []int64, requested map[int64]int) {
	requested = make(map[int64]int, len(lines))
	for _, l := range lines {
		if _, seen := requested[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		requested[l.ProductID] += l.Quantity
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, requested
}

// Package sales contiene la lógica pura del procesamiento de ventas: orden de bloqueo,
// cálculo de totales y la máquina de estados de la transacción. Sin I/O.
package sales

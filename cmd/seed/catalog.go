package main

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/nova-salud-api/internal/application/dto"
)

// parseCatalog lee el CSV de productos. La primera fila es cabecera.
// Si el contenido no es UTF-8 válido se decodifica como ISO-8859-1.
func parseCatalog(r io.Reader) ([]dto.CreateProductRequest, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)
	var src io.Reader = br
	if !utf8.Valid(trimPartialRune(head)) {
		src = transform.NewReader(br, charmap.ISO8859_1.NewDecoder())
	}

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("cabecera: %w", err)
	}

	var out []dto.CreateProductRequest
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if len(rec) < 4 {
			return nil, fmt.Errorf("línea %d: se esperaban al menos 4 columnas", line)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
		if err != nil || price.IsNegative() {
			return nil, fmt.Errorf("línea %d: precio inválido %q", line, rec[2])
		}
		stock, err := strconv.Atoi(strings.TrimSpace(rec[3]))
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("línea %d: stock inválido %q", line, rec[3])
		}
		p := dto.CreateProductRequest{
			Name:     strings.TrimSpace(rec[0]),
			Category: strings.TrimSpace(rec[1]),
			Price:    price,
			Stock:    stock,
		}
		if len(rec) > 4 {
			p.Description = strings.TrimSpace(rec[4])
		}
		if p.Name == "" {
			return nil, fmt.Errorf("línea %d: nombre vacío", line)
		}
		out = append(out, p)
	}
	return out, nil
}

// trimPartialRune quita una runa UTF-8 cortada al final del buffer leído.
func trimPartialRune(b []byte) []byte {
	for i := 0; i < utf8.UTFMax && len(b) > 0; i++ {
		if utf8.Valid(b) {
			return b
		}
		b = b[:len(b)-1]
	}
	return b
}

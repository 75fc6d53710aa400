package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Columnas esperadas (encabezado obligatorio, orden libre):
// code,name,serialized,cost_price,quantity,min_stock,imei,serial_number
var requiredColumns = []string{"code", "name", "serialized", "cost_price"}

// seedRow una fila del saldo inicial. Los SKUs serializados traen una fila por IMEI.
type seedRow struct {
	Line         int
	Code         string
	Name         string
	Serialized   bool
	CostPrice    decimal.Decimal
	Quantity     int
	MinStock     int
	IMEI         string
	SerialNumber string
}

// skuBatch filas agrupadas por código de SKU, en el orden en que aparecen.
type skuBatch struct {
	Code       string
	Name       string
	Serialized bool
	CostPrice  decimal.Decimal
	Quantity   int
	MinStock   int
	Units      []seedRow
}

// newCSVReader envuelve r con el decodificador ISO-8859-1 de los exportes del ERP anterior.
func newCSVReader(r io.Reader, latin1 bool) *csv.Reader {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	return cr
}

func readRows(cr *csv.Reader) ([]seedRow, error) {
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer encabezado: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("falta la columna %q", name)
		}
	}
	get := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []seedRow
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		r := seedRow{
			Line:         line,
			Code:         get(rec, "code"),
			Name:         get(rec, "name"),
			IMEI:         get(rec, "imei"),
			SerialNumber: get(rec, "serial_number"),
		}
		if r.Code == "" {
			return nil, fmt.Errorf("línea %d: code vacío", line)
		}
		if r.Serialized, err = parseBool(get(rec, "serialized")); err != nil {
			return nil, fmt.Errorf("línea %d: serialized: %w", line, err)
		}
		if r.CostPrice, err = parseCost(get(rec, "cost_price")); err != nil {
			return nil, fmt.Errorf("línea %d: cost_price: %w", line, err)
		}
		if r.Quantity, err = parseInt(get(rec, "quantity")); err != nil {
			return nil, fmt.Errorf("línea %d: quantity: %w", line, err)
		}
		if r.MinStock, err = parseInt(get(rec, "min_stock")); err != nil {
			return nil, fmt.Errorf("línea %d: min_stock: %w", line, err)
		}
		if r.Serialized && r.IMEI == "" {
			return nil, fmt.Errorf("línea %d: SKU serializado sin IMEI", line)
		}
		if !r.Serialized && r.Quantity < 0 {
			return nil, fmt.Errorf("línea %d: quantity negativa", line)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// groupRows junta las filas por código. Para no serializados suma cantidades; para serializados
// acumula las unidades.
func groupRows(rows []seedRow) []*skuBatch {
	byCode := make(map[string]*skuBatch)
	var out []*skuBatch
	for _, r := range rows {
		b, ok := byCode[r.Code]
		if !ok {
			b = &skuBatch{Code: r.Code, Name: r.Name, Serialized: r.Serialized, CostPrice: r.CostPrice, MinStock: r.MinStock}
			byCode[r.Code] = b
			out = append(out, b)
		}
		if b.Serialized {
			b.Units = append(b.Units, r)
			continue
		}
		b.Quantity += r.Quantity
	}
	return out
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "n", "no", "false":
		return false, nil
	case "1", "s", "si", "sí", "y", "yes", "true":
		return true, nil
	}
	return false, fmt.Errorf("valor %q no reconocido", s)
}

// parseCost acepta coma decimal ("1234,50") como la exporta el ERP.
func parseCost(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("costo negativo")
	}
	return d, nil
}

func parseInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

package testutil

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Namespaces used by generated registration requests.
const (
	nsRequest   = "http://www.broservices.nl/xsd/isbhr-gml/1.0"
	nsCommon    = "http://www.broservices.nl/xsd/brocommon/3.0"
	nsCPTCommon = "http://www.broservices.nl/xsd/cptcommon/1.1"
	nsSWE       = "http://www.opengis.net/swe/2.0"
	nsGML       = "http://www.opengis.net/gml/3.2"
)

// Request describes a CPT registration request to render as XML.
type Request struct {
	// Penetrometer holds the conePenetrometer children. Nil means
	// DefaultPenetrometer(); use an empty map for none.
	Penetrometer map[string]string
	// Parameters holds the parameters flags. Nil means no flags.
	Parameters map[string]string
	// OmitSurvey drops the whole conePenetrometerSurvey element.
	OmitSurvey bool
	// OmitPenetrometer drops the conePenetrometer element.
	OmitPenetrometer bool
	// CPTRows are the conePenetrationTest measurements. Nil means no test.
	CPTRows [][]float64
	// RawCPTValues, when set, replaces the rendered CPTRows payload.
	RawCPTValues string
	// Dissipation holds one row set per dissipationTest.
	Dissipation [][][]float64
}

// DefaultPenetrometer returns a fully described cone penetrometer.
func DefaultPenetrometer() map[string]string {
	return map[string]string{
		"coneDiameter":                  "36",
		"coneSurfaceQuotient":           "0.75",
		"coneToFrictionSleeveDistance":  "100",
		"frictionSleeveSurfaceArea":     "15000",
		"frictionSleeveSurfaceQuotient": "1",
	}
}

// AllParameters returns flags marking every checked column as measured.
func AllParameters() map[string]string {
	return map[string]string{
		"depth":                   "ja",
		"correctedConeResistance": "ja",
		"inclinationResultant":    "ja",
		"localFriction":           "ja",
		"frictionRatio":           "ja",
	}
}

// Row returns a row of cols fields set to 1, with overrides applied by index.
func Row(cols int, overrides map[int]float64) []float64 {
	row := make([]float64, cols)
	for i := range row {
		row[i] = 1
	}
	for i, v := range overrides {
		row[i] = v
	}
	return row
}

// Rows returns n identical rows of cols fields.
func Rows(n, cols int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = Row(cols, nil)
	}
	return out
}

// Values renders rows as a `values` payload.
func Values(rows [][]float64) string {
	var b strings.Builder
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteString(";")
	}
	return b.String()
}

// CompleteRequest returns a request that passes every completeness rule.
func CompleteRequest() Request {
	return Request{
		Parameters:  AllParameters(),
		CPTRows:     Rows(10, 25),
		Dissipation: [][][]float64{Rows(4, 5)},
	}
}

// XML renders the request.
func (r Request) XML() string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<registrationRequest xmlns="%s" xmlns:brocom="%s" xmlns:cptcommon="%s" xmlns:swe="%s" xmlns:gml="%s">`+"\n",
		nsRequest, nsCommon, nsCPTCommon, nsSWE, nsGML)
	b.WriteString("  <brocom:requestReference>cptcheck</brocom:requestReference>\n")
	b.WriteString("  <brocom:deliveryAccountableParty>27376655</brocom:deliveryAccountableParty>\n")
	b.WriteString("  <brocom:qualityRegime>IMBRO</brocom:qualityRegime>\n")
	b.WriteString("  <sourceDocument>\n")
	b.WriteString(`    <CPT gml:id="id_0001">` + "\n")
	b.WriteString("      <objectIdAccountableParty>CPT-0001</objectIdAccountableParty>\n")

	if !r.OmitSurvey {
		b.WriteString("      <conePenetrometerSurvey>\n")
		if !r.OmitPenetrometer {
			pen := r.Penetrometer
			if pen == nil {
				pen = DefaultPenetrometer()
			}
			b.WriteString("        <cptcommon:conePenetrometer>\n")
			writeLeaves(&b, "          ", pen)
			b.WriteString("        </cptcommon:conePenetrometer>\n")
		}
		if r.Parameters != nil {
			b.WriteString("        <cptcommon:parameters>\n")
			writeLeaves(&b, "          ", r.Parameters)
			b.WriteString("        </cptcommon:parameters>\n")
		}
		if r.CPTRows != nil || r.RawCPTValues != "" {
			payload := r.RawCPTValues
			if payload == "" {
				payload = Values(r.CPTRows)
			}
			b.WriteString("        <cptcommon:conePenetrationTest>\n")
			b.WriteString("          <cptcommon:cptResult>\n")
			fmt.Fprintf(&b, "            <swe:values>%s</swe:values>\n", payload)
			b.WriteString("          </cptcommon:cptResult>\n")
			b.WriteString("        </cptcommon:conePenetrationTest>\n")
		}
		for _, rows := range r.Dissipation {
			b.WriteString("        <cptcommon:dissipationTest>\n")
			b.WriteString("          <cptcommon:disResult>\n")
			fmt.Fprintf(&b, "            <swe:values>%s</swe:values>\n", Values(rows))
			b.WriteString("          </cptcommon:disResult>\n")
			b.WriteString("        </cptcommon:dissipationTest>\n")
		}
		b.WriteString("      </conePenetrometerSurvey>\n")
	}

	b.WriteString("    </CPT>\n")
	b.WriteString("  </sourceDocument>\n")
	b.WriteString("</registrationRequest>\n")
	return b.String()
}

func writeLeaves(b *strings.Builder, indent string, leaves map[string]string) {
	keys := make([]string, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s<cptcommon:%s>%s</cptcommon:%s>\n", indent, k, leaves[k], k)
	}
}

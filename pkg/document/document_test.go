package document_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/cptcheck/internal/testutil"
	"github.com/leapstack-labs/cptcheck/pkg/document"
)

func TestParse_CompleteRequest(t *testing.T) {
	doc, err := document.ParseString(testutil.CompleteRequest().XML())
	require.NoError(t, err)

	assert.True(t, doc.IsCPT())

	cone, ok := doc.ConeTestMatrix()
	require.True(t, ok)
	assert.Equal(t, 10, cone.Rows())
	assert.Equal(t, document.CptFieldCount, cone.Cols())

	diss, ok := doc.DissipationMatrices()
	require.True(t, ok)
	require.Len(t, diss, 1)
	assert.Equal(t, 4, diss[0].Rows())
	assert.Equal(t, document.DissipationFieldCount, diss[0].Cols())

	pen, err := doc.ConePenetrometer()
	require.NoError(t, err)
	assert.Equal(t, "36", pen["coneDiameter"])

	params, err := doc.CptParameters()
	require.NoError(t, err)
	assert.Equal(t, "ja", params["depth"])
}

func TestParse_MetadataHasNoValues(t *testing.T) {
	doc, err := document.ParseString(testutil.CompleteRequest().XML())
	require.NoError(t, err)

	test, err := doc.Metadata().Map(append(document.SurveyPath, "conePenetrationTest", "cptResult")...)
	require.NoError(t, err)
	assert.NotContains(t, test, "values")
}

func TestParse_NoMeasurements(t *testing.T) {
	doc, err := document.ParseString(testutil.Request{}.XML())
	require.NoError(t, err)

	_, ok := doc.ConeTestMatrix()
	assert.False(t, ok)

	diss, ok := doc.DissipationMatrices()
	assert.False(t, ok, "no dissipationTest must read as absent")
	assert.Nil(t, diss)
}

func TestParse_MultipleDissipationTestsInOrder(t *testing.T) {
	req := testutil.Request{
		Dissipation: [][][]float64{
			testutil.Rows(2, 5),
			testutil.Rows(3, 5),
			testutil.Rows(7, 5),
		},
	}
	doc, err := document.ParseString(req.XML())
	require.NoError(t, err)

	diss, ok := doc.DissipationMatrices()
	require.True(t, ok)
	require.Len(t, diss, 3)
	assert.Equal(t, 2, diss[0].Rows())
	assert.Equal(t, 3, diss[1].Rows())
	assert.Equal(t, 7, diss[2].Rows())
}

func TestParse_DissipationTestWithoutRowsIsPresentButEmpty(t *testing.T) {
	req := testutil.Request{Dissipation: [][][]float64{{}}}
	doc, err := document.ParseString(req.XML())
	require.NoError(t, err)

	diss, ok := doc.DissipationMatrices()
	require.True(t, ok)
	require.Len(t, diss, 1)
	assert.Equal(t, 0, diss[0].Rows())
}

func TestParse_MalformedRowsDropped(t *testing.T) {
	good := testutil.Values(testutil.Rows(3, 25))
	req := testutil.Request{RawCPTValues: good + "1,2,3;" + strings.Repeat("1,", 30) + "1;"}
	doc, err := document.ParseString(req.XML())
	require.NoError(t, err)

	cone, ok := doc.ConeTestMatrix()
	require.True(t, ok)
	assert.Equal(t, 3, cone.Rows())
}

func TestParse_NonNumericFieldIsParseError(t *testing.T) {
	row := strings.Repeat("1,", 24) + "abc"
	req := testutil.Request{RawCPTValues: row + ";"}
	_, err := document.ParseString(req.XML())
	require.Error(t, err)

	var pe *document.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 25, pe.Field)
	assert.Contains(t, err.Error(), "conePenetrationTest values")
}

func TestParse_InvalidXML(t *testing.T) {
	_, err := document.ParseString("<registrationRequest><sourceDocument></registrationRequest>")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode xml")

	_, err = document.ParseString("")
	assert.Error(t, err)
}

func TestParse_IsCPT(t *testing.T) {
	doc, err := document.ParseString(`<registrationRequest><sourceDocument><BHR-P/></sourceDocument></registrationRequest>`)
	require.NoError(t, err)
	assert.False(t, doc.IsCPT())

	doc, err = document.ParseString(`<other><sourceDocument><CPT><x>1</x></CPT></sourceDocument></other>`)
	require.NoError(t, err)
	assert.False(t, doc.IsCPT())
}

func TestParse_ValuesMissingLeavesMatrixUnset(t *testing.T) {
	doc, err := document.ParseString(`<registrationRequest><conePenetrationTest><x>1</x></conePenetrationTest><dissipationTest/></registrationRequest>`)
	require.NoError(t, err)

	_, ok := doc.ConeTestMatrix()
	assert.False(t, ok)

	diss, ok := doc.DissipationMatrices()
	assert.True(t, ok)
	assert.Empty(t, diss)
}

func TestDocument_Namespaces(t *testing.T) {
	doc, err := document.ParseString(testutil.CompleteRequest().XML())
	require.NoError(t, err)

	ns := doc.Namespaces()
	assert.Equal(t, "{http://www.broservices.nl/xsd/cptcommon/1.1}", ns["cptcommon"])
	assert.Equal(t, "{http://www.broservices.nl/xsd/isbhr-gml/1.0}", ns[""])

	tag, ok := doc.QualifiedTag("cptcommon:coneDiameter")
	require.True(t, ok)
	assert.Equal(t, "{http://www.broservices.nl/xsd/cptcommon/1.1}coneDiameter", tag)

	_, ok = doc.QualifiedTag("nope:coneDiameter")
	assert.False(t, ok)
	_, ok = doc.QualifiedTag("coneDiameter")
	assert.False(t, ok)

	node := doc.FindQualified("cptcommon:coneDiameter")
	require.NotNil(t, node)
	assert.Equal(t, "36", node.Text)

	assert.Nil(t, doc.FindQualified("brocom:coneDiameter"))
}

func TestDocument_Paths(t *testing.T) {
	doc, err := document.ParseString(`<a><b><c/></b><!-- x --><d/></a>`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.b", "a.b.c", "a.d"}, doc.Paths())

	// a missing key is reported in the same dotted form
	_, err = doc.Metadata().Lookup("a", "b", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x" at a.b`)
}

func TestParse_Latin1Charset(t *testing.T) {
	// 0xEB is e-diaeresis in ISO-8859-1.
	raw := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><registrationRequest><note>co\xebfficient</note></registrationRequest>")
	doc, err := document.ParseBytes(raw)
	require.NoError(t, err)

	note, err := doc.Metadata().String("registrationRequest", "note")
	require.NoError(t, err)
	assert.Equal(t, "coëfficient", note)
}

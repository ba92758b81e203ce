package ewa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/well-data-etl/internal/domain"
)

const resultsPage = `<html><body><table>
<tr>
  <td><a href="/ewa/wellboreQueryAction.do?methodToCall=wellboreDetail&apiNo=32912345">32912345</a></td>
  <td><a title="Operator # 659525" href="/ewa/operatorAction.do?no=659525">PIONEER NATURAL RESOURCES USA, INC.</a></td>
</tr>
<tr>
  <td><a href="/ewa/wellboreQueryAction.do?methodToCall=wellboreDetail&apiNo=32954321">32954321</a></td>
  <td><a title="Operator # 216155" href="/ewa/operatorAction.do?no=216155">DIAMONDBACK E&amp;P LLC</a></td>
</tr>
</table></body></html>`

func TestParseResultsPagePairs(t *testing.T) {
	result, err := ParseResultsPage([]byte(resultsPage))
	require.NoError(t, err)

	assert.False(t, result.Overflow)
	assert.False(t, result.Empty())

	require.Len(t, result.Operators, 2)
	assert.Equal(t, Operator{Number: "659525", Name: "PIONEER NATURAL RESOURCES USA, INC."}, result.Operators[0])

	assert.Equal(t, []domain.OperatorPair{
		{API: "32912345", Name: "PIONEER NATURAL RESOURCES USA, INC."},
		{API: "32954321", Name: "DIAMONDBACK E&P LLC"},
	}, result.Pairs)
}

func TestParseResultsPageOverflow(t *testing.T) {
	body := []byte(`<html><body>
		<p>Your query returned 30124 records found, which exceeds the maximum number allowed.</p>
	</body></html>`)

	result, err := ParseResultsPage(body)
	require.NoError(t, err)
	assert.True(t, result.Overflow)
	assert.Equal(t, 30124, result.TotalCount)
	assert.Empty(t, result.Pairs)
	assert.False(t, result.Empty())
}

func TestParseResultsPageOverflowWithoutCount(t *testing.T) {
	body := []byte(`<html><body><p>Result size exceeds the maximum allowed.</p></body></html>`)

	result, err := ParseResultsPage(body)
	require.NoError(t, err)
	assert.True(t, result.Overflow)
	assert.Zero(t, result.TotalCount)
}

func TestParseResultsPageEmpty(t *testing.T) {
	body := []byte(`<html><body><p>No records found matching your query.</p></body></html>`)

	result, err := ParseResultsPage(body)
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Empty(t, result.Pairs)
}

// TestParseResultsPageUnevenLists pins the positional pairing contract:
// pairing stops at the shorter of the two anchor lists.
func TestParseResultsPageUnevenLists(t *testing.T) {
	body := []byte(`<html><body>
		<a href="?apiNo=32911111">32911111</a>
		<a href="?apiNo=32922222">32922222</a>
		<a title="Operator # 100001" href="#">EOG RESOURCES, INC.</a>
	</body></html>`)

	result, err := ParseResultsPage(body)
	require.NoError(t, err)
	require.Len(t, result.Operators, 1)
	assert.Equal(t, []domain.OperatorPair{
		{API: "32911111", Name: "EOG RESOURCES, INC."},
	}, result.Pairs)
}

// TestParseResultsPageIgnoresOtherAnchors checks that navigation links and
// anchors with unrelated titles don't leak into the extraction.
func TestParseResultsPageIgnoresOtherAnchors(t *testing.T) {
	body := []byte(`<html><body>
		<a title="Home" href="/ewa/ewaMain.do">Home</a>
		<a href="/ewa/help.do?topic=query">Help</a>
		<a href="?apiNo=32933333">32933333</a>
		<a title="Operator # 200002" href="#">DEVON ENERGY PRODUCTION CO, L.P.</a>
	</body></html>`)

	result, err := ParseResultsPage(body)
	require.NoError(t, err)
	assert.Equal(t, []domain.OperatorPair{
		{API: "32933333", Name: "DEVON ENERGY PRODUCTION CO, L.P."},
	}, result.Pairs)
}

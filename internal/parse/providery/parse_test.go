package providery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultTableHTML = `
<table class="result-table-detail">
  <thead><tr><th>着順</th><th>車番</th><th>選手</th></tr></thead>
  <tbody>
    <tr><td>1</td><td>3</td><td>p3</td></tr>
    <tr><td>2</td><td>1</td><td>p1</td></tr>
  </tbody>
</table>`

const payoutTableHTML = `
<table class="result-pay">
  <tbody>
    <tr><th>3連単</th><td>3-1-2</td><td>12,340円</td><td>5</td></tr>
    <tr><th>単勝</th><td></td><td></td><td></td></tr>
  </tbody>
</table>`

const lapPositionHTML = `
<div class="result-b-hyo-lap-wrapper">
  <div class="b-hyo">
    <table><tr><th class="bg-base-color">ホーム</th></tr></table>
    <span class="bike-icon-wrapper bikeno-3 x-120 y-45">
      <span class="racer-nm">Taro</span>
    </span>
  </div>
</div>`

func TestParse_ResultTable(t *testing.T) {
	out := Parse(42, []byte(resultTableHTML))
	require.Len(t, out.Results, 2)
	assert.Equal(t, 1, out.Results[0].Rank)
	assert.Equal(t, 3, out.Results[0].Frame)
	assert.Equal(t, "p3", out.Results[0].PlayerID)
	assert.Empty(t, out.Issues)
}

func TestParse_PayoutTable_MarksAbsentRow(t *testing.T) {
	out := Parse(42, []byte(payoutTableHTML))
	require.Len(t, out.Payouts, 2)
	assert.Equal(t, "3-1-2", out.Payouts[0].Combination)
	assert.EqualValues(t, 12340, out.Payouts[0].AmountYen)
	assert.Equal(t, 5, out.Payouts[0].Popularity)

	assert.Equal(t, "", out.Payouts[1].Combination)
	assert.EqualValues(t, 0, out.Payouts[1].AmountYen)
	assert.NotEmpty(t, out.Issues)
}

func TestParse_LapPositions(t *testing.T) {
	out := Parse(42, []byte(lapPositionHTML))
	require.Len(t, out.LapPositions, 1)
	pos := out.LapPositions[0]
	assert.Equal(t, "ホーム", pos.Section)
	assert.Equal(t, 3, pos.Frame)
	assert.Equal(t, 120, pos.X)
	assert.Equal(t, 45, pos.Y)
	assert.Equal(t, "Taro", pos.PlayerName)
}

func TestParse_MissingResultTable_ReportsIssue(t *testing.T) {
	out := Parse(42, []byte(`<html><body>no tables here</body></html>`))
	assert.Empty(t, out.Results)
	assert.NotEmpty(t, out.Issues)
}

func TestStripImgTags_RemovesOpenAndSelfClosingTags(t *testing.T) {
	html := []byte(`<td><img src="bike.png" class="icon">3<img src="x.png"/></td>`)
	stripped := stripImgTags(html)
	assert.NotContains(t, string(stripped), "<img")
	assert.Contains(t, string(stripped), "3")
}

func TestParse_ResultTableWithImgIcons(t *testing.T) {
	html := `
<table class="result-table-detail">
  <thead><tr><th>着順</th><th>車番</th><th>選手</th></tr></thead>
  <tbody>
    <tr><td><img src="rank1.png">1</td><td>3</td><td><img src="p3.png">p3</td></tr>
  </tbody>
</table>`
	out := Parse(42, []byte(html))
	require.Len(t, out.Results, 1)
	assert.Equal(t, 1, out.Results[0].Rank)
	assert.Equal(t, "p3", out.Results[0].PlayerID)
}

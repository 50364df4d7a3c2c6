package service

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/notekeep/notekeep-server/internal/domain"
	"github.com/notekeep/notekeep-server/internal/normalize"
	"github.com/notekeep/notekeep-server/internal/query"
)

const (
	zeroResultMessage = "No matching notes were found."
	maxTips           = 5
)

// ZeroResult is the listing body returned instead of an empty array. It
// explains what was searched and suggests how to broaden the search.
type ZeroResult struct {
	Results      []domain.RankedNote `json:"results"`
	Message      string              `json:"message"`
	Tips         []string            `json:"tips"`
	Echo         Echo                `json:"echo"`
	FriendlyText string              `json:"friendly_text"`
}

// Echo repeats the effective search conditions.
type Echo struct {
	Q       *string  `json:"q"`
	RankMin *float64 `json:"rank_min"`
	Limit   int      `json:"limit"`
	OrderBy string   `json:"order_by"`
}

// NewZeroResult builds the empty-listing payload for a compiled request.
func NewZeroResult(f *query.Filter, rank query.Rank, st *query.Statement) *ZeroResult {
	echo := Echo{RankMin: rank.Min, Limit: st.Limit, OrderBy: orderLabel(st)}
	if f.HasText() {
		q := f.Text
		echo.Q = &q
	}
	tips := zeroResultTips(f, rank.Min)
	return &ZeroResult{
		Results:      []domain.RankedNote{},
		Message:      zeroResultMessage,
		Tips:         tips,
		Echo:         echo,
		FriendlyText: friendlyText(f.Text, tips, echo),
	}
}

func orderLabel(st *query.Statement) string {
	if st.Ranked {
		return query.RankLabel
	}
	field, dir, _ := strings.Cut(st.OrderKey, ":")
	return field + "_" + dir
}

func zeroResultTips(f *query.Filter, rankMin *float64) []string {
	var tips []string

	if !f.HasText() {
		tips = append(tips, "Enter a keyword to search for (for example \"meeting\" or \"test\").")
	} else {
		n := normalize.Length(f.Text)
		if n >= 8 {
			tips = append(tips, "Long keywords sometimes match better when split into shorter words.")
		}
		if n <= 2 {
			tips = append(tips, fmt.Sprintf("Use a keyword of at least %d characters to enable similarity search.", query.MinRankLength))
		}
	}

	switch f.Mode {
	case query.TextExact:
		tips = append(tips, "Besides exact matching (q_mode=exact), try partial matching (partial) or similarity search (trgm).")
	case query.TextPartial:
		tips = append(tips, "If partial matching finds nothing, try similarity search (q_mode=trgm).")
	}

	switch {
	case f.RankDisabled:
		tips = append(tips, fmt.Sprintf("Similarity scoring is currently disabled for short keywords. Search again with %d or more characters.", query.MinRankLength))
	case rankMin != nil && *rankMin >= 0.5:
		tips = append(tips, "Try lowering rank_min a little, for example to 0.3.")
	case rankMin != nil:
		tips = append(tips, "Try searching again without rank_min.")
	default:
		tips = append(tips, "Add rank=1 to see results ordered by similarity score.")
	}

	if normalize.HasFullWidthAlnum(f.Text) {
		tips = append(tips, "Check for full-width letters or digits and use half-width characters instead.")
	}
	if strings.ContainsFunc(f.Text, unicode.IsSpace) {
		tips = append(tips, "Remove unnecessary spaces and search again.")
	}

	if len(tips) == 0 {
		tips = append(tips, "Try other spellings or synonyms.")
	}

	tips = dedupe(tips)
	if len(tips) > maxTips {
		tips = tips[:maxTips]
	}
	return tips
}

func dedupe(tips []string) []string {
	out := make([]string, 0, len(tips))
	for _, t := range tips {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}

// friendlyText renders the payload as a short human-readable message.
func friendlyText(q string, tips []string, echo Echo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "No notes matched the keyword %q.", q)

	if len(tips) > 0 {
		sb.WriteString("\nTips:")
		for _, t := range tips {
			sb.WriteString("\n- ")
			sb.WriteString(t)
		}
	} else {
		sb.WriteString("\nNo tips available.")
	}

	var conds []string
	if echo.RankMin != nil {
		conds = append(conds, "rank_min="+strconv.FormatFloat(*echo.RankMin, 'g', -1, 64))
	}
	if echo.OrderBy != "" {
		conds = append(conds, "order_by="+echo.OrderBy)
	}
	if len(conds) > 0 {
		sb.WriteString("\n(Search conditions: ")
		sb.WriteString(strings.Join(conds, ", "))
		sb.WriteString(")")
	}
	return sb.String()
}

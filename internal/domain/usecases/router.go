package usecases

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/0xcro3dile/islandguide/internal/domain/entities"
)

// DefaultMapSearchURL receives the escaped question appended to it.
const DefaultMapSearchURL = "https://www.google.com/maps/search/?api=1&query="

// Naming the ferry operator or one of its routes is enough for a live lookup.
var operatorKeywords = []string{
	"九州商船",
	"kyusho",
	"ジェットフォイル",
	"フェリー万葉",
	"フェリー椿",
	"フェリーなみじ",
}

// A place name counts only together with a status term.
var placeNames = []string{
	"五島", "福江", "奈留", "上五島", "長崎", "有川", "青方", "佐世保", "中通島",
	"goto", "fukue", "naru", "nagasaki", "arikawa", "sasebo",
}

var statusTerms = []string{
	"運航", "欠航", "運休", "遅延", "状況", "動いて", "出航",
	"status", "cancel", "delay", "running",
}

var mapKeywords = []string{
	"どこ", "行き方", "アクセス", "地図", "場所", "道順",
	"where", "how to get", "access", "map", "directions",
}

// Answerer is the grounded generator as seen by the router.
type Answerer interface {
	Answer(ctx context.Context, question string) entities.Answer
}

// StatusReporter renders the live transit status.
type StatusReporter interface {
	Report(ctx context.Context) string
}

// RouterUseCase classifies a question and dispatches it.
type RouterUseCase struct {
	answerer     Answerer
	transit      StatusReporter
	mapSearchURL string
}

// NewRouterUseCase creates the router.
func NewRouterUseCase(answerer Answerer, transit StatusReporter, mapSearchURL string) *RouterUseCase {
	if mapSearchURL == "" {
		mapSearchURL = DefaultMapSearchURL
	}
	return &RouterUseCase{
		answerer:     answerer,
		transit:      transit,
		mapSearchURL: mapSearchURL,
	}
}

// Classify picks a route. Transit is checked before map lookup.
func Classify(question string) entities.Route {
	q := strings.ToLower(question)

	if containsAny(q, operatorKeywords) || (containsAny(q, placeNames) && containsAny(q, statusTerms)) {
		return entities.RouteTransitStatus
	}
	if containsAny(q, mapKeywords) {
		return entities.RouteMapLookup
	}
	return entities.RouteKnowledge
}

// Handle answers question along its route.
func (uc *RouterUseCase) Handle(ctx context.Context, question string) entities.Reply {
	route := Classify(question)
	slog.Info("routing question", "route", route)

	switch route {
	case entities.RouteTransitStatus:
		return entities.Reply{Route: route, Text: uc.transit.Report(ctx)}
	case entities.RouteMapLookup:
		return entities.Reply{Route: route, Text: uc.MapReply(question)}
	default:
		answer := uc.answerer.Answer(ctx, question)
		return entities.Reply{Route: route, Text: answer.Text, Grounded: answer.Grounded}
	}
}

// MapReply is the lead-in plus a map search URL for the raw question.
func (uc *RouterUseCase) MapReply(question string) string {
	return MsgMapLeadIn + uc.mapSearchURL + url.QueryEscape(question)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

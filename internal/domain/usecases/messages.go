package usecases

// User-facing canned replies. Every failure the core can hit degrades to
// one of these instead of an error reaching the transport.
const (
	MsgRefusal          = "申し訳ありません。その質問に関する情報が資料に見つかりませんでした。"
	MsgNoCurrentInfo    = "現在、その件についての情報はありません。"
	MsgGenerationFailed = "回答の生成中にエラーが発生しました。しばらくしてから再度お試しください。"
	MsgRetrievalFailed  = "資料の検索中にエラーが発生しました。しばらくしてから再度お試しください。"
	MsgStatusNotFound   = "運航状況の表示エリアが見つかりませんでした。"
	MsgStatusError      = "運航状況の取得中にエラーが発生しました。"
	MsgMapLeadIn        = "こちらの地図をご覧ください:\n"
)

// NoInfoMarker is the exact token the model is told to emit when the
// evidence does not answer the question.
const NoInfoMarker = "[[NO_INFO]]"

// Persona opens every generation instruction.
const Persona = "あなたは五島観光のAI案内人です。"

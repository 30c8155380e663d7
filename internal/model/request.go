package model

type ChatRequest struct {
	UserID        string `json:"userId" binding:"required"`
	Message       string `json:"message" binding:"required"`
	Model         string `json:"model"`
	SystemMessage string `json:"systemMessage"`
}

type AnalyzeRequest struct {
	UserID       string `json:"userId" binding:"required"`
	AnalysisType string `json:"analysisType"`
}

type CarSearchRequest struct {
	Query string `json:"query" binding:"required"`
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/aa12gq/desahogos-moderation/internal/app/model"
	"github.com/aa12gq/desahogos-moderation/internal/app/service"
)

var (
	serverURL  = flag.String("http", "http://localhost:8080", "HTTP server address")
	grpcTarget = flag.String("grpc", "localhost:9090", "gRPC server address")
)

// 审核响应结构
type moderateResponse struct {
	Success bool                    `json:"success"`
	Result  *model.ModerationResult `json:"result"`
	Error   string                  `json:"error"`
}

// 测试用例
type testCase struct {
	name        string
	content     string
	userID      string
	contentType model.ContentType
}

var scenarios = []testCase{
	{"正常内容", "Hoy fue un buen día, salí a caminar con mi perro.", "user_001", model.ContentStory},
	{"危机内容", "ya no quiero vivir, quiero matarme", "user_002", model.ContentStory},
	{"全部大写", "ESTOY MUY ENOJADO CON TODO ESTO HOY", "user_003", model.ContentComment},
	{"垃圾信息", "COMPRA AHORA!!! Gana dinero fácil, haz clic aquí: http://a.com http://b.com http://c.com", "user_004", model.ContentComment},
	{"骚扰", "eres un idiota, nadie te quiere", "user_005", model.ContentMessage},
	{"治疗分享", "Hoy fui a terapia y me sentí un poco mejor, gracias por el apoyo de todos.", "user_006", model.ContentStory},
}

func main() {
	flag.Parse()

	// 测试服务健康状态
	testHealthCheck()

	// 测试单条审核
	testModerate()

	// 测试重复内容
	testRepeatedContent()

	// 测试危机分析与警报
	testCrisis()

	// 测试统计
	testStats()

	// 测试gRPC流式审核
	testGRPCStream()
}

// 测试健康检查
func testHealthCheck() {
	fmt.Println("\n=== 测试健康检查 ===")

	resp, err := http.Get(*serverURL + "/api/v1/health")
	if err != nil {
		fmt.Printf("请求失败: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		fmt.Println("服务健康状态: 正常")
	} else {
		fmt.Printf("服务健康状态: 异常，状态码 %d\n", resp.StatusCode)
	}
}

// 测试单条审核
func testModerate() {
	fmt.Println("\n=== 测试内容审核 ===")

	for _, tc := range scenarios {
		fmt.Printf("\n测试用例: %s\n", tc.name)
		fmt.Printf("内容: %s\n", tc.content)

		response := doModerate(tc.content, tc.userID, tc.contentType)
		if response == nil {
			continue
		}
		printResult(response.Result)
	}
}

// 测试重复内容
func testRepeatedContent() {
	fmt.Println("\n=== 测试重复内容 ===")

	content := "Hoy me siento mucho mejor que ayer"
	for i := 1; i <= 2; i++ {
		fmt.Printf("\n第 %d 次发送\n", i)
		response := doModerate(content, "user_repeat", model.ContentComment)
		if response == nil {
			return
		}
		printResult(response.Result)
	}
}

// 测试危机分析与警报
func testCrisis() {
	fmt.Println("\n=== 测试危机分析 ===")

	messages := []string{
		"Hoy tuve un buen día en el trabajo",
		"me siento sola y triste",
		"ya no puedo más",
		"quiero morir",
	}

	for _, msg := range messages {
		fmt.Printf("\n消息: %s\n", msg)
		body, err := postJSON("/api/v1/crisis/alerts", map[string]string{
			"user_id":  "user_chat",
			"username": "anon_chat",
			"message":  msg,
		})
		if err != nil {
			fmt.Printf("请求失败: %v\n", err)
			continue
		}

		var resp struct {
			Analysis *model.CrisisAnalysis `json:"analysis"`
			Alert    *model.CrisisAlert    `json:"alert"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			fmt.Printf("解析响应失败: %v\n", err)
			continue
		}

		if resp.Analysis != nil {
			fmt.Printf("严重程度: %s\n", resp.Analysis.Severity)
			fmt.Printf("关键词: %v\n", resp.Analysis.Keywords)
			fmt.Printf("建议: %s\n", resp.Analysis.RecommendedAction)
		}
		if resp.Alert != nil {
			fmt.Printf("已创建警报: %s (%s)\n", resp.Alert.ID, resp.Alert.Severity)
		}
	}
}

// 测试统计
func testStats() {
	fmt.Println("\n=== 测试系统统计 ===")

	resp, err := http.Get(*serverURL + "/api/v1/stats")
	if err != nil {
		fmt.Printf("请求失败: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Stats *model.SystemStats `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil || result.Stats == nil {
		fmt.Printf("解析响应失败: %v\n", err)
		return
	}

	fmt.Printf("用户数: %d\n", result.Stats.TotalUsers)
	fmt.Printf("标记总数: %d\n", result.Stats.TotalFlags)
	fmt.Printf("被标记用户: %d (%.1f%%)\n", result.Stats.FlaggedUsers, result.Stats.FlaggedUserPercentage)
	fmt.Printf("配置版本: %d, 词库版本: %s\n", result.Stats.ConfigVersion, result.Stats.LexiconVersion)
}

// 测试gRPC流式审核
func testGRPCStream() {
	fmt.Println("\n=== 测试gRPC流式审核 ===")

	conn, err := grpc.NewClient(*grpcTarget, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		fmt.Printf("连接失败: %v\n", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := service.NewModerationClient(conn).StreamModerateContent(ctx)
	if err != nil {
		fmt.Printf("打开流失败: %v\n", err)
		return
	}

	for _, tc := range scenarios {
		if err := stream.Send(&model.ModerationRequest{Content: tc.content, UserID: "stream_" + tc.userID, ContentType: tc.contentType}); err != nil {
			fmt.Printf("发送失败: %v\n", err)
			return
		}
	}
	if err := stream.CloseSend(); err != nil {
		fmt.Printf("关闭发送失败: %v\n", err)
		return
	}

	for i := 0; ; i++ {
		result, err := stream.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Printf("接收失败: %v\n", err)
			return
		}
		fmt.Printf("\n流式结果 %d: %s\n", i+1, scenarios[i].name)
		printResult(result)
	}
}

// 发送审核请求
func doModerate(content, userID string, contentType model.ContentType) *moderateResponse {
	body, err := postJSON("/api/v1/moderate", map[string]string{
		"content":      content,
		"user_id":      userID,
		"content_type": string(contentType),
	})
	if err != nil {
		fmt.Printf("请求失败: %v\n", err)
		return nil
	}

	var response moderateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		fmt.Printf("解析响应失败: %v\n", err)
		return nil
	}
	if !response.Success || response.Result == nil {
		fmt.Printf("审核失败: %s\n", response.Error)
		return nil
	}
	return &response
}

func postJSON(path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	resp, err := http.Post(*serverURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// 输出审核结果
func printResult(result *model.ModerationResult) {
	fmt.Printf("建议动作: %s\n", result.SuggestedAction)
	fmt.Printf("严重程度: %s\n", result.Severity)
	fmt.Printf("置信度: %.2f\n", result.Confidence)
	fmt.Printf("说明: %s\n", result.Explanation)
	fmt.Printf("耗时: %dms\n", result.CostTime)

	if len(result.Flags) > 0 {
		fmt.Println("风险标记:")
		for i, f := range result.Flags {
			fmt.Printf("  %d. %s (%.2f) %v\n", i+1, f.Type, f.Confidence, f.Evidence)
		}
	}
}

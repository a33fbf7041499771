package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	baseURL     string
	buyers      int
	stock       int
	concurrency int
	httpClient  *http.Client
)

// envelope 接口统一响应
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

var rootCmd = &cobra.Command{
	Use:   "stress_tool",
	Short: "购物车超卖压测：多个买家同时抢购库存有限的帖子",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "服务地址")
	rootCmd.Flags().IntVar(&buyers, "buyers", 200, "并发买家数量")
	rootCmd.Flags().IntVar(&stock, "stock", 5, "帖子库存")
	rootCmd.Flags().IntVar(&concurrency, "concurrency", 50, "注册阶段的并发上限")

	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 2000
	t.MaxIdleConnsPerHost = 2000
	t.MaxConnsPerHost = 2000
	httpClient = &http.Client{Transport: t, Timeout: 10 * time.Second}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	tag := uuid.New().String()[:8]

	// 1. 卖家发布帖子
	sellerToken, err := signup("seller_" + tag)
	if err != nil {
		return fmt.Errorf("signup seller: %w", err)
	}
	var post struct {
		ID string `json:"id"`
	}
	if err := call(http.MethodPost, "/posts", sellerToken, map[string]interface{}{
		"title":         "压测专用帖子 " + tag,
		"price":         "9.90",
		"stockQuantity": stock,
	}, &post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	// 2. 注册买家
	tokens := make([]string, buyers)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var signupErr error
	var mu sync.Mutex
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			token, err := signup(fmt.Sprintf("buyer_%s_%d", tag, i))
			mu.Lock()
			defer mu.Unlock()
			if err != nil && signupErr == nil {
				signupErr = err
			}
			tokens[i] = token
		}(i)
	}
	wg.Wait()
	if signupErr != nil {
		return fmt.Errorf("signup buyers: %w", signupErr)
	}

	fmt.Printf("开始压测：%d 个买家抢购库存 %d 的帖子 (PostID: %s)...\n", buyers, stock, post.ID)

	// 3. 并发加入购物车
	success, conflict, failed := 0, 0, 0
	start := time.Now()
	for _, token := range tokens {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			status, err := addToCart(token, post.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && status == http.StatusCreated:
				success++
			case status == http.StatusConflict:
				conflict++
			default:
				failed++
			}
		}(token)
	}
	wg.Wait()
	duration := time.Since(start)

	// 4. 校验剩余库存
	var detail struct {
		StockQuantity int `json:"stockQuantity"`
	}
	if err := call(http.MethodGet, "/posts/"+post.ID, "", nil, &detail); err != nil {
		return fmt.Errorf("fetch post: %w", err)
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("总请求数: %d\n", buyers)
	fmt.Printf("QPS: %.2f\n", float64(buyers)/duration.Seconds())
	fmt.Printf("加购成功: %d (预期: %d)\n", success, min(stock, buyers))
	fmt.Printf("库存不足: %d\n", conflict)
	fmt.Printf("其他失败: %d\n", failed)
	fmt.Printf("剩余库存: %d\n", detail.StockQuantity)
	fmt.Println("--------------------------------------------------")

	if success+detail.StockQuantity != stock {
		return fmt.Errorf("stock not conserved: reserved %d + remaining %d != %d", success, detail.StockQuantity, stock)
	}
	return nil
}

func signup(username string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	err := call(http.MethodPost, "/auth/signup", "", map[string]string{
		"username": username,
		"password": "stress-password",
	}, &result)
	return result.Token, err
}

func addToCart(token, postID string) (int, error) {
	return do(http.MethodPost, "/cart/items", token, map[string]interface{}{"postId": postID, "quantity": 1}, nil)
}

func call(method, path, token string, payload, dest interface{}) error {
	status, err := do(method, path, token, payload, dest)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%s %s: status %d", method, path, status)
	}
	return nil
}

func do(method, path, token string, payload, dest interface{}) (int, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	if dest != nil && len(env.Data) > 0 && resp.StatusCode < 300 {
		if err := json.Unmarshal(env.Data, dest); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

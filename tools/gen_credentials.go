package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	role := "user"
	if len(os.Args) > 1 {
		role = os.Args[1]
	}

	apiKey := "ak_" + randomHex(32)
	apiSecret := randomHex(64)

	hashedSecret, err := bcrypt.GenerateFromPassword([]byte(apiSecret), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("错误: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("========================================")
	fmt.Println("接入凭证生成成功!")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("API Key:   ", apiKey)
	fmt.Println("API Secret:", apiSecret)
	fmt.Println()
	fmt.Println("SQL插入语句:")
	fmt.Println("----------------------------------------")
	fmt.Printf("INSERT INTO `users` (`username`, `email`, `api_key`, `api_secret`, `role`, `status`)\n")
	fmt.Printf("VALUES ('your_username', 'user@example.com', '%s', '%s', '%s', 1);\n",
		apiKey, string(hashedSecret), role)
	fmt.Println("----------------------------------------")
	fmt.Println()
	fmt.Println("提示: secret仅此一次明文展示，请妥善保存")
}

func randomHex(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/annel0/peach-village/internal/auth"
)

func main() {
	var (
		operator  = flag.String("operator", "", "Имя оператора в токене")
		ttl       = flag.Duration("ttl", 24*time.Hour, "Срок действия токена")
		secretEnv = flag.String("secret-env", "VILLAGE_JWT_SECRET", "Переменная с base64 секретом")
		genSecret = flag.Bool("gen-secret", false, "Сгенерировать новый секрет и выйти")
	)
	flag.Parse()

	if *genSecret {
		secret, err := auth.GenerateSecureSecret()
		if err != nil {
			log.Fatalf("❌ Не удалось сгенерировать секрет: %v", err)
		}
		fmt.Println(secret)
		return
	}

	if *operator == "" {
		log.Fatalf("❌ Не указан оператор (-operator)")
	}
	issuer, err := auth.NewTokenIssuerFromBase64(os.Getenv(*secretEnv))
	if err != nil {
		log.Fatalf("❌ Секрет из %s не подходит: %v", *secretEnv, err)
	}

	token, err := issuer.Issue(*operator, *ttl)
	if err != nil {
		log.Fatalf("❌ Не удалось выпустить токен: %v", err)
	}
	fmt.Println(token)
}

package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fulldump/box"

	"github.com/fulldump/tabledb/api"
	"github.com/fulldump/tabledb/configuration"
	"github.com/fulldump/tabledb/database"
	"github.com/fulldump/tabledb/service"
)

var VERSION = "dev"

func Bootstrap(c configuration.Config) (start, stop func()) {

	if c.RequireAuth && (c.ApiKey == "" || c.ApiSecret == "") {
		log.Println("ERROR: authentication is required but api key/secret are not set")
		os.Exit(-1)
	}

	db := database.NewDatabase(&database.Config{
		Dir: c.Dir,
	})

	b := api.Build(service.NewService(db), c.Statics, VERSION, c.ApiKey, c.ApiSecret, c.RequireAuth)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(log.New(os.Stdout, "ACCESS: ", log.Lshortfile)),
		api.PrettyErrorInterceptor,
		api.InterceptorUnavailable(db),
		api.RecoverFromPanic,
	)

	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: box.Box2Http(b),
	}

	if c.Tls.Enabled && c.Tls.SelfSigned {
		log.Println("TLS with a self-signed certificate for", c.Tls.Domain)
		s.TLSConfig = &tls.Config{
			Certificates: []tls.Certificate{selfSignedCertificate(c.Tls.Domain)},
		}
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}
	log.Println("listening on", c.HttpAddr)

	stop = func() {
		db.Stop()
		s.Shutdown(context.Background())
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			fmt.Println("Signal received", sig.String())
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				fmt.Println(err.Error())
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			if c.Tls.Enabled {
				err = s.ServeTLS(ln, c.Tls.CertFile, c.Tls.KeyFile)
			} else {
				err = s.Serve(ln)
			}
			if err != nil {
				fmt.Println(err.Error())
			}
		}()

		wg.Wait()
	}

	return
}

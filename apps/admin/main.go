package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/rors/core"
	"github.com/trezcool/rors/core/school"
	"github.com/trezcool/rors/core/user"
	emailsvc "github.com/trezcool/rors/services/email"
	logsvc "github.com/trezcool/rors/services/logger"
	"github.com/trezcool/rors/storage/database"
	sqlxrepos "github.com/trezcool/rors/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New(logsvc.PrefixAdmin, conf)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	// set up services
	usrSvc := user.NewService(db, sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger), conf)
	schoolSvc := school.NewService(db, sqlxrepos.NewSchoolRepository(db), usrSvc, validate)

	// start CLI
	cli := commandLine{
		db:        db.DB,
		usrSvc:    usrSvc,
		schoolSvc: schoolSvc,
		validate:  validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	logger.Close()
	if err != nil {
		if err != errHelp {
			logger.Std().Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

package pkg

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

type Config struct {
	DatabaseName      string `json:"dbName"`
	BotToken          string `json:"discordToken"`
	DevGuildID        string `json:"devGuildId"`
	ManagerRolePrefix string `json:"managerRolePrefix"`
	InvitePoll_d      time.Duration
	InvitePoll        string `json:"invitePoll"`
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("missing bot token")
	}

	if c.DatabaseName == "" {
		c.DatabaseName = "src-bot.db"
	}

	if !strings.HasSuffix(c.DatabaseName, ".db") {
		c.DatabaseName += ".db"
	}

	if c.ManagerRolePrefix == "" {
		c.ManagerRolePrefix = "Student-Run Bot"
	}

	if c.InvitePoll == "" {
		c.InvitePoll_d = 5 * time.Minute
	} else {
		regex := regexp.MustCompile(`(.*?)([a-zA-Z]+)`)

		match := regex.FindStringSubmatch(c.InvitePoll)

		if len(match) == 3 {
			var err error
			c.InvitePoll_d, err = time.ParseDuration(match[1] + match[2])
			if err != nil {
				return err
			}
		} else {
			return errors.New("invalid invite poll time")
		}
	}

	return nil
}

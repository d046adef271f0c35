package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/NeuralEnsemble/download/domain"
)

var (
	user     = flag.String("u", "admin", "The user to login with")
	pass     = flag.String("p", "", "The password")
	server   = flag.String("s", "http://localhost:9090", "The location of the server")
	insecure = flag.Bool("insecure", false, "Skip certificate check")
	ref      = flag.String("ref", "", "Limit reports to a single reference")
	country  = flag.String("country", "", "Limit reports to a single country")
)

func stderr(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format, v...)
	os.Exit(1)
}

func check(e error) {
	if e != nil {
		stderr("Error - %v\n", e)
	}
}

func main() {
	flag.Parse()
	if *user == "" {
		stderr("Please provide the username")
	}
	if *pass == "" {
		stderr("Please provide the password")
	}
	args := flag.Args()
	if len(args) == 0 {
		stderr("Please provide the action you want to perform - stats/countries/requests/log/newu")
	}
	c, err := New(*user, *pass, *server, *insecure)
	check(err)
	u, err := c.Login()
	check(err)
	fmt.Printf("Logged in with user %s [%s]\n", u.Username, u.Name)
	switch args[0] {
	case "stats":
		s, err := c.Stats(*ref, *country)
		check(err)
		fmt.Printf("Requests: %d (distinct emails %d)\n", s.Requests, s.DistinctEmails)
		fmt.Printf("Downloads: %d\n", s.Downloads)
		for _, p := range s.Platforms {
			fmt.Printf("%10s\t%d\t%.2f%%\n", p.Platform, p.Downloads, p.Percent)
		}
	case "countries":
		counts, err := c.Countries()
		check(err)
		fmt.Println("Country\t\tRequests\tDistinct")
		for _, cc := range counts {
			fmt.Printf("%s\t\t%d\t%d\n", cc.Country, cc.Requests, cc.DistinctEmails)
		}
	case "requests":
		reqs, err := c.Requests(*ref, *country)
		check(err)
		for _, r := range reqs {
			fmt.Printf("%s\t%s <%s>\t%s\t%s\tdownloads=%d [%s]\n",
				r.Reference, r.Name, r.Email, r.Country, r.RequestDate, r.Downloads, r.State())
		}
	case "log":
		l, err := c.DownloadLog(*ref)
		check(err)
		b, _ := json.MarshalIndent(l, "", "  ")
		fmt.Printf("%s\n", string(b))
	case "newu":
		if len(args) < 3 {
			stderr("User syntax is: newu username password [name [email]]\n")
		}
		nu := &userDetails{Username: args[1], Password: args[2], Type: domain.UserTypeAdmin}
		if len(args) > 3 {
			nu.Name = args[3]
		}
		if len(args) > 4 {
			nu.Email = args[4]
		}
		res, err := c.SetUser(nu)
		check(err)
		b, _ := json.MarshalIndent(res, "", "  ")
		fmt.Printf("Created user:\n%s\n", string(b))
	default:
		stderr("Unknown action - %s\n", args[0])
	}
}

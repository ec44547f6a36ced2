/*
Package config loads the vfsops configuration file.

	            +-------------+
	            |   Config    |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   HCL    | |   YAML   | |   JSON   |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Declares the sources (local, github, s3) a run can touch
- Declares named jobs for the run command
- Tunes the engine (parallelism, progress threshold, progress interval)

🔄 Flow:
1. Picks a parser by file extension
2. Decodes, rejecting unknown fields
3. Applies defaults
4. Validates tags, then cross references between jobs and sources

🔍 Example:

	engine {
	  default_parallelism = 8
	}

	source "docs" {
	  provider = "local"
	  root     = env.HOME
	}

	source "backup" {
	  provider = "s3"
	  bucket   = "team-backup"
	  prefix   = "docs"
	}

	job "nightly" {
	  action    = "copy"
	  from      = "docs"
	  to        = "backup"
	  paths     = ["reports"]
	  recursive = true
	}
*/
package config
